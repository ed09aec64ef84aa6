// Package shell is an interactive REPL around the engine: play moves by
// hand, ask the engine for one move or a whole game, or run autoplay
// batches.
package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/mattvperry/AI-2048/automatic"
	"github.com/mattvperry/AI-2048/board"
	"github.com/mattvperry/AI-2048/config"
	"github.com/mattvperry/AI-2048/expectimax"
	"github.com/mattvperry/AI-2048/game"
)

type ShellController struct {
	l      *readline.Instance
	cfg    *config.Config
	game   *game.Game
	solver *expectimax.Solver
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31m2048>\033[0m ",
		HistoryFile:     "/tmp/ai2048_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	solver := expectimax.NewSolver()
	solver.SetDepthLimit(cfg.SearchDepth)
	solver.SetCacheEnabled(!cfg.CacheDisabled)
	return &ShellController{l: l, cfg: cfg, game: game.NewGame(), solver: solver}
}

func (sc *ShellController) showGame() {
	out := sc.l.Stderr()
	showMessage(sc.game.ToDisplayText(), out)
	showMessage(fmt.Sprintf("score: %d  moves: %d", sc.game.Score(), sc.game.Moves()), out)
	if !sc.game.Playing() {
		showMessage("game over", out)
	}
}

func (sc *ShellController) handleNew() {
	sc.game = game.NewGame()
	sc.showGame()
}

func (sc *ShellController) handleMove(args []string) {
	if len(args) == 0 {
		showMessage("need a direction (up/down/left/right)", sc.l.Stderr())
		return
	}
	d, err := board.ParseDirection(args[0])
	if err != nil {
		showMessage(err.Error(), sc.l.Stderr())
		return
	}
	if err := sc.game.PlayMove(d); err != nil {
		showMessage(fmt.Sprintf("%s: %v", d, err), sc.l.Stderr())
		return
	}
	sc.showGame()
}

func (sc *ShellController) handleAI(args []string) {
	plays := 1
	if len(args) > 0 {
		var err error
		plays, err = strconv.Atoi(args[0])
		if err != nil || plays < 1 {
			showMessage("usage: ai [number of moves]", sc.l.Stderr())
			return
		}
	}
	for i := 0; i < plays && sc.game.Playing(); i++ {
		d := sc.solver.FindBestMove(sc.game.Board())
		showMessage(fmt.Sprintf("engine plays %s", d), sc.l.Stderr())
		if err := sc.game.PlayMove(d); err != nil {
			showMessage(fmt.Sprintf("engine move failed: %v", err), sc.l.Stderr())
			return
		}
	}
	sc.showGame()
}

func (sc *ShellController) handlePlayOut() {
	for sc.game.Playing() {
		d := sc.solver.FindBestMove(sc.game.Board())
		if err := sc.game.PlayMove(d); err != nil {
			showMessage(fmt.Sprintf("engine move failed: %v", err), sc.l.Stderr())
			return
		}
	}
	sc.showGame()
}

func (sc *ShellController) handleAutoplay(args []string) {
	cfg := *sc.cfg
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			showMessage("usage: autoplay [number of games]", sc.l.Stderr())
			return
		}
		cfg.NumGames = n
	}
	results, err := automatic.StartAutoplayGames(context.Background(), &cfg)
	if err != nil {
		showMessage(err.Error(), sc.l.Stderr())
		return
	}
	automatic.PrintSummary(sc.l.Stderr(), results)
}

func (sc *ShellController) handleSet(args []string) {
	if len(args) != 2 {
		showMessage("usage: set depth|cache <value>", sc.l.Stderr())
		return
	}
	switch args[0] {
	case "depth":
		depth, err := strconv.Atoi(args[1])
		if err != nil || depth < 0 {
			showMessage("depth must be a non-negative integer (0 = adaptive)", sc.l.Stderr())
			return
		}
		sc.cfg.SearchDepth = depth
		sc.solver.SetDepthLimit(depth)
	case "cache":
		enabled := args[1] == "on"
		sc.cfg.CacheDisabled = !enabled
		sc.solver.SetCacheEnabled(enabled)
	default:
		showMessage(fmt.Sprintf("unknown option %q", args[0]), sc.l.Stderr())
		return
	}
	showMessage("ok", sc.l.Stderr())
}

func (sc *ShellController) usage() {
	showMessage(`Commands:
  new                start a new game
  show               show the current position
  move <direction>   play up, down, left, or right (or u/d/l/r)
  ai [n]             let the engine play n moves (default 1)
  play               let the engine play the game out
  autoplay [n]       self-play a batch of games and show stats
  set depth <n>      fix the search depth (0 = adaptive)
  set cache on|off   toggle the transposition cache
  exit               leave the shell`, sc.l.Stderr())
}

func (sc *ShellController) Loop() {
	defer sc.l.Close()
	sc.showGame()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "new":
			sc.handleNew()
		case "show":
			sc.showGame()
		case "move", "m":
			sc.handleMove(args)
		case "ai":
			sc.handleAI(args)
		case "play":
			sc.handlePlayOut()
		case "autoplay":
			sc.handleAutoplay(args)
		case "set":
			sc.handleSet(args)
		case "help":
			sc.usage()
		case "exit", "quit":
			log.Debug().Msg("leaving shell")
			return
		default:
			showMessage(fmt.Sprintf("unknown command %q; try help", cmd), sc.l.Stderr())
		}
	}
}
