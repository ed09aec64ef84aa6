package board

import (
	"testing"

	"github.com/matryer/is"
)

func TestFromGridRoundTrip(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{
		{2, 0, 4, 8},
		{0, 32768, 0, 2},
		{16, 16, 2, 0},
		{0, 0, 0, 1024},
	}
	b, err := FromGrid(grid)
	is.NoErr(err)
	is.Equal(b.Grid(), grid)
}

func TestFromGridRejectsNonPowerOfTwo(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{}
	grid[1][2] = 6
	_, err := FromGrid(grid)
	is.True(err != nil)
}

func TestFromGridRejectsOversizedTile(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{}
	grid[0][0] = 65536 // 2^16; exponent does not fit a nibble
	_, err := FromGrid(grid)
	is.True(err != nil)

	grid[0][0] = 32768 // 2^15 is the largest encodable tile
	_, err = FromGrid(grid)
	is.NoErr(err)
}

func TestFromGridRejectsNegative(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{}
	grid[3][3] = -2
	_, err := FromGrid(grid)
	is.True(err != nil)
}

func TestNibbleLayout(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{}
	grid[0][0] = 2
	b, err := FromGrid(grid)
	is.NoErr(err)
	// cell (0,0) is the most significant nibble
	is.Equal(uint64(b), uint64(1)<<60)
}

func TestTransposeSelfInverse(t *testing.T) {
	is := is.New(t)
	boards := []Board{0, 0x123456789ABCDEF0, 0xFFFFFFFFFFFFFFFF, 0x0000000100000000}
	for _, b := range boards {
		is.Equal(b.Transpose().Transpose(), b)
	}
}

func TestTransposeSwapsRowsAndColumns(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{
		{2, 4, 8, 16},
		{0, 2, 0, 4},
		{32, 0, 2, 0},
		{0, 8, 0, 2},
	}
	b, err := FromGrid(grid)
	is.NoErr(err)
	tr := b.Transpose()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			is.Equal(tr.Tile(r, c), grid[c][r])
		}
	}
}

func TestCountEmptyMatchesDirectScan(t *testing.T) {
	is := is.New(t)
	boards := []Board{0, 0xFFFFFFFFFFFFFFFF, 0x123456789ABCDEF0, 0x1000000000000001, 0x0030020000400001}
	for _, b := range boards {
		direct := 0
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				if b.Exponent(r, c) == 0 {
					direct++
				}
			}
		}
		is.Equal(b.CountEmpty(), direct)
	}
}

func TestCountDistinct(t *testing.T) {
	is := is.New(t)
	is.Equal(Board(0).CountDistinct(), 0)
	is.Equal(Board(0x1111111111111111).CountDistinct(), 1)
	is.Equal(Board(0x123456789ABCDEF0).CountDistinct(), 15)

	grid := [4][4]int{{2, 4, 2, 0}, {8, 0, 0, 4}}
	b, err := FromGrid(grid)
	is.NoErr(err)
	is.Equal(b.CountDistinct(), 3)
}

func TestTilePlacements(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 0, 4},
		{4, 2, 4, 0},
	}
	b, err := FromGrid(grid)
	is.NoErr(err)
	placements := b.TilePlacements()
	is.Equal(len(placements), 2)
	// scan order runs from the bottom-right cell upward
	is.Equal(placements[0].WithTwo.Tile(3, 3), 2)
	is.Equal(placements[0].WithFour.Tile(3, 3), 4)
	is.Equal(placements[1].WithTwo.Tile(2, 2), 2)
	is.Equal(placements[1].WithFour.Tile(2, 2), 4)
	// the original board is untouched elsewhere
	is.Equal(placements[0].WithTwo.Tile(0, 0), 2)
}

func TestTilePlacementsRestartable(t *testing.T) {
	is := is.New(t)
	b, err := FromGrid([4][4]int{{2}})
	is.NoErr(err)
	first := b.TilePlacements()
	second := b.TilePlacements()
	is.Equal(len(first), 15)
	is.Equal(first, second)
}

func TestMaxTile(t *testing.T) {
	is := is.New(t)
	is.Equal(Board(0).MaxTile(), 0)
	b, err := FromGrid([4][4]int{{2, 1024, 4, 0}})
	is.NoErr(err)
	is.Equal(b.MaxTile(), 1024)
}

func mustFromGrid(t *testing.T, grid [4][4]int) Board {
	t.Helper()
	b, err := FromGrid(grid)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestExecuteMoveRowExamples(t *testing.T) {
	is := is.New(t)

	// [2,0,0,2] right -> [0,0,0,4]
	b := mustFromGrid(t, [4][4]int{{2, 0, 0, 2}})
	is.Equal(b.ExecuteMove(Right), mustFromGrid(t, [4][4]int{{0, 0, 0, 4}}))

	// [2,2,2,2] left -> [4,4,0,0]
	b = mustFromGrid(t, [4][4]int{{2, 2, 2, 2}})
	is.Equal(b.ExecuteMove(Left), mustFromGrid(t, [4][4]int{{4, 4, 0, 0}}))

	// [2,4,2,4] right -> unchanged
	b = mustFromGrid(t, [4][4]int{{2, 4, 2, 4}})
	is.Equal(b.ExecuteMove(Right), b)
}

func TestExecuteMoveVertical(t *testing.T) {
	is := is.New(t)
	grid := [4][4]int{
		{2, 0, 0, 0},
		{2, 4, 0, 0},
		{0, 4, 2, 0},
		{0, 0, 2, 8},
	}
	b := mustFromGrid(t, grid)

	up := b.ExecuteMove(Up)
	is.Equal(up, mustFromGrid(t, [4][4]int{
		{4, 8, 4, 8},
	}))

	down := b.ExecuteMove(Down)
	is.Equal(down, mustFromGrid(t, [4][4]int{
		{}, {}, {},
		{4, 8, 4, 8},
	}))
}

func TestExecuteMoveMergeCap(t *testing.T) {
	is := is.New(t)
	// two maximum tiles never merge past the encoding width
	b := mustFromGrid(t, [4][4]int{{32768, 32768, 0, 0}})
	is.Equal(b.ExecuteMove(Left), b)
}

func TestExecuteMoveNoOpIdempotent(t *testing.T) {
	is := is.New(t)
	b := mustFromGrid(t, [4][4]int{{2, 4, 2, 4}})
	moved := b.ExecuteMove(Right)
	is.Equal(moved, b)
	is.Equal(moved.ExecuteMove(Right), b)
}

func TestExecuteMoveEachCellMergesOnce(t *testing.T) {
	is := is.New(t)
	// [4,2,2,0] left -> [4,4,0,0], not [8,0,0,0]
	b := mustFromGrid(t, [4][4]int{{4, 2, 2, 0}})
	is.Equal(b.ExecuteMove(Left), mustFromGrid(t, [4][4]int{{4, 4, 0, 0}}))
}

func TestInvalidDirectionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an invalid direction")
		}
	}()
	Board(0x2).ExecuteMove(Direction(9))
}
