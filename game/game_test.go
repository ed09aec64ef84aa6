package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/mattvperry/AI-2048/board"
)

func TestNewGameStartsWithTwoTiles(t *testing.T) {
	is := is.New(t)
	g := NewGame()
	is.Equal(g.Board().CountEmpty(), 14)
	is.Equal(g.Moves(), 0)
	is.True(g.Playing())
}

func TestPlayMoveAddsATile(t *testing.T) {
	is := is.New(t)
	b, err := board.FromGrid([4][4]int{{2, 2, 0, 0}})
	is.NoErr(err)
	g := NewGameFromBoard(b)

	err = g.PlayMove(board.Left)
	is.NoErr(err)
	is.Equal(g.Moves(), 1)
	// the merge left one 4-tile; the drop added one more tile
	is.Equal(g.Board().CountEmpty(), 14)
	is.Equal(g.Board().Tile(0, 0), 4)
}

func TestPlayMoveNoChange(t *testing.T) {
	is := is.New(t)
	b, err := board.FromGrid([4][4]int{
		{2, 0, 0, 0},
		{4, 0, 0, 0},
	})
	is.NoErr(err)
	g := NewGameFromBoard(b)

	err = g.PlayMove(board.Left)
	is.True(errors.Is(err, ErrNoChange))
	is.Equal(g.Board(), b)
	is.Equal(g.Moves(), 0)
}

func TestScoreCountsMergesNotSpawns(t *testing.T) {
	is := is.New(t)
	b, err := board.FromGrid([4][4]int{{2, 2, 0, 0}})
	is.NoErr(err)
	g := NewGameFromBoard(b)
	is.Equal(g.Score(), 0) // nothing merged yet

	err = g.PlayMove(board.Left)
	is.NoErr(err)
	// the 2+2 merge scores 4; a spawned 4 would be penalized right back out
	is.Equal(g.Score(), 4)
}

func TestGameOverDetection(t *testing.T) {
	is := is.New(t)
	b, err := board.FromGrid([4][4]int{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	})
	is.NoErr(err)
	g := NewGameFromBoard(b)
	is.True(!g.Playing())
	for _, d := range board.Directions {
		is.True(errors.Is(g.PlayMove(d), ErrNoChange))
	}
}
