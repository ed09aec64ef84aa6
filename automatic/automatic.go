// Package automatic plays computer-vs-randomness games to completion, in
// bulk. It exists to measure the engine: score distributions, max-tile
// rates, and search throughput across many self-played games.
package automatic

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/mattvperry/AI-2048/config"
	"github.com/mattvperry/AI-2048/expectimax"
	"github.com/mattvperry/AI-2048/game"
)

// GameResult is the outcome of one self-played game.
type GameResult struct {
	Score   int
	Moves   int
	MaxTile int
}

// GameRunner plays games with its own solver. One runner must not be shared
// across worker goroutines; each worker gets its own.
type GameRunner struct {
	solver  *expectimax.Solver
	logchan chan string
}

// NewGameRunner instantiates a runner with a solver configured from cfg.
func NewGameRunner(cfg *config.Config, logchan chan string) *GameRunner {
	solver := expectimax.NewSolver()
	if cfg != nil {
		solver.SetDepthLimit(cfg.SearchDepth)
		solver.SetCacheEnabled(!cfg.CacheDisabled)
	}
	return &GameRunner{solver: solver, logchan: logchan}
}

// PlayFullGame plays a single game to the end and returns its result.
func (r *GameRunner) PlayFullGame(ctx context.Context) (GameResult, error) {
	g := game.NewGame()
	for g.Playing() {
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}
		d := r.solver.FindBestMove(g.Board())
		if err := g.PlayMove(d); err != nil {
			// the solver returned a no-op; only possible on a stuck board,
			// which Playing() already excludes
			return GameResult{}, fmt.Errorf("solver picked an illegal move %s: %w", d, err)
		}
		if r.logchan != nil {
			r.logchan <- fmt.Sprintf("%d,%s,%d\n", g.Moves(), d, g.Score())
		}
	}
	res := GameResult{Score: g.Score(), Moves: g.Moves(), MaxTile: g.Board().MaxTile()}
	log.Debug().Int("score", res.Score).Int("moves", res.Moves).
		Int("max-tile", res.MaxTile).Msg("game-over")
	return res, nil
}

// StartAutoplayGames plays cfg.NumGames games across cfg.Threads worker
// goroutines and returns the results, optionally streaming a per-move CSV
// log to cfg.LogFile. Cancelling the context stops feeding new games; games
// already in flight finish.
func StartAutoplayGames(ctx context.Context, cfg *config.Config) ([]GameResult, error) {
	numGames := cfg.NumGames
	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	log.Info().Int("games", numGames).Int("threads", threads).Msg("starting-autoplay")

	var logChan chan string
	var logDone chan struct{}
	if cfg.LogFile != "" {
		logfile, err := os.Create(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		logChan = make(chan string, 100)
		logDone = make(chan struct{})
		go func() {
			defer close(logDone)
			defer logfile.Close()
			logfile.WriteString("move,direction,score\n")
			for msg := range logChan {
				logfile.WriteString(msg)
			}
		}()
	}

	jobs := make(chan struct{}, 100)
	results := make(chan GameResult, 100)
	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()
			r := NewGameRunner(cfg, logChan)
			for range jobs {
				res, err := r.PlayFullGame(ctx)
				if err != nil {
					log.Err(err).Msg("game-abandoned")
					continue
				}
				results <- res
			}
		}()
	}

	go func() {
	gameLoop:
		for i := 1; i <= numGames; i++ {
			select {
			case <-ctx.Done():
				log.Info().Msg("got stop signal, finishing in-flight games")
				break gameLoop
			case jobs <- struct{}{}:
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
		if logChan != nil {
			close(logChan)
		}
	}()

	collected := make([]GameResult, 0, numGames)
	for res := range results {
		collected = append(collected, res)
		if len(collected)%10 == 0 {
			log.Info().Int("finished", len(collected)).Int("total", numGames).Msg("autoplay-progress")
		}
	}
	if logDone != nil {
		<-logDone
	}
	return collected, nil
}

// PrintSummary writes a stats block for a finished batch: score moments, the
// top-tile attainment rates, and a score histogram.
func PrintSummary(w io.Writer, results []GameResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no games finished")
		return
	}
	scores := lo.Map(results, func(r GameResult, _ int) float64 { return float64(r.Score) })
	mean, stddev := stat.MeanStdDev(scores, nil)
	if len(scores) < 2 {
		stddev = 0
	}

	fmt.Fprintf(w, "games: %d\n", len(results))
	fmt.Fprintf(w, "score: mean %.1f, stddev %.1f\n", mean, stddev)

	tiles := lo.Uniq(lo.Map(results, func(r GameResult, _ int) int { return r.MaxTile }))
	sort.Sort(sort.Reverse(sort.IntSlice(tiles)))
	for _, tile := range tiles {
		reached := lo.CountBy(results, func(r GameResult) bool { return r.MaxTile >= tile })
		fmt.Fprintf(w, "reached %5d: %5.1f%%\n", tile, 100*float64(reached)/float64(len(results)))
	}

	fmt.Fprintln(w, "score distribution:")
	hist := histogram.Hist(10, scores)
	if err := histogram.Fprint(w, hist, histogram.Linear(40)); err != nil {
		log.Err(err).Msg("could-not-print-histogram")
	}
}
