package config

import (
	"runtime"

	"github.com/namsral/flag"
)

// Config carries the process-level knobs: how hard the engine searches, how
// many games to self-play and on how many threads, and where logs go. The
// search algorithm's own constants (probability threshold, cache depth) are
// compile-time tunables and deliberately not here.
type Config struct {
	Debug         bool
	Threads       int
	NumGames      int
	SearchDepth   int
	CacheDisabled bool
	LogFile       string
}

// Load parses args (and matching environment variables, per namsral/flag)
// into the config.
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("ai2048", flag.ContinueOnError)
	fs.BoolVar(&c.Debug, "debug", false, "debug logging")
	fs.IntVar(&c.Threads, "threads", runtime.NumCPU(), "number of autoplay worker threads")
	fs.IntVar(&c.NumGames, "num-games", 1, "number of games to autoplay")
	fs.IntVar(&c.SearchDepth, "search-depth", 0, "fixed search depth limit; 0 picks a depth per position")
	fs.BoolVar(&c.CacheDisabled, "disable-cache", false, "disable the transposition cache (slower, same moves)")
	fs.StringVar(&c.LogFile, "log-file", "", "write a per-move CSV log to this file")
	return fs.Parse(args)
}
