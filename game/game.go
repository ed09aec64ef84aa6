// Package game holds the playable game state: the board plus everything the
// search itself does not need: the running score, the move counter, the
// random tile drops, and game-over detection. The search core is a pure
// function of a board; this package is what an actuation surface (a shell, a
// browser driver) talks to.
package game

import (
	"errors"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/mattvperry/AI-2048/board"
)

// ErrNoChange is returned when a played move does not change the board.
// It is not a game error; the caller just should not count the turn.
var ErrNoChange = errors.New("move does not change the board")

// Game is a single self-contained 2048 game.
type Game struct {
	board board.Board
	// the merge-score tables credit spawned 4s as if they were merged from
	// 2s; this tracks the correction to subtract
	scorePenalty int
	moves        int
}

// NewGame starts a game with two random tiles, as the real game does.
func NewGame() *Game {
	board.InitTables()
	g := &Game{}
	g.addRandomTile()
	g.addRandomTile()
	return g
}

// NewGameFromBoard wraps an existing position, with no score history.
func NewGameFromBoard(b board.Board) *Game {
	board.InitTables()
	return &Game{board: b}
}

// Board returns the current position.
func (g *Game) Board() board.Board {
	return g.board
}

// Moves returns the number of effective moves played so far.
func (g *Game) Moves() int {
	return g.moves
}

// Score returns the score as the real game would display it.
func (g *Game) Score() int {
	return int(board.MergeScore(g.board)) - g.scorePenalty
}

// Playing reports whether any direction still changes the board.
func (g *Game) Playing() bool {
	for _, d := range board.Directions {
		if g.board.ExecuteMove(d) != g.board {
			return true
		}
	}
	return false
}

// PlayMove slides the board in the given direction and, if the board
// changed, drops a random tile into an empty cell. A move that changes
// nothing returns ErrNoChange and leaves the game untouched.
func (g *Game) PlayMove(d board.Direction) error {
	next := g.board.ExecuteMove(d)
	if next == g.board {
		return ErrNoChange
	}
	g.board = next
	g.moves++
	g.addRandomTile()
	return nil
}

// addRandomTile drops a 2 (90%) or a 4 (10%) into a uniformly random empty
// cell. On a full board it does nothing.
func (g *Game) addRandomTile() {
	placements := g.board.TilePlacements()
	if len(placements) == 0 {
		log.Debug().Msg("no empty cell for a new tile")
		return
	}
	pl := placements[frand.Intn(len(placements))]
	if frand.Intn(10) < 9 {
		g.board = pl.WithTwo
	} else {
		g.board = pl.WithFour
		g.scorePenalty += 4
	}
}

// ToDisplayText renders the current position.
func (g *Game) ToDisplayText() string {
	return g.board.ToDisplayText()
}
