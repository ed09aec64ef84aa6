package board

import (
	"fmt"
	"math/bits"
	"strings"
)

// A Board is a full 4x4 grid packed into a single 64-bit value. Each cell is
// a 4-bit exponent: a nibble v represents the tile 2^v, and 0 represents an
// empty cell. Nibbles are laid out row-major with the most significant
// nibble at row 0, column 0. Two boards with the same bit pattern are the
// same position; there are no identity semantics anywhere.
type Board uint64

// A Row is one 4-cell slice of a board, 4 nibbles in a 16-bit value. The
// most significant nibble is column 0.
type Row uint16

const (
	rowMask = 0xFFFF

	// MaxExponent is the largest tile exponent a nibble can hold.
	MaxExponent = 15
)

// Direction is one of the four slide directions.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists all directions in their canonical enumeration order.
// Ties at the top of the search are broken by this order.
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// ParseDirection converts a user-facing direction name (or its first letter)
// to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// FromGrid packs a 4x4 grid of displayed tile values into a Board. A cell is
// either 0 (empty) or a power of two no larger than 1<<MaxExponent. Anything
// else is a domain error; values are never silently truncated.
func FromGrid(grid [4][4]int) (Board, error) {
	var b Board
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			v := grid[r][c]
			if v == 0 {
				continue
			}
			if v < 0 || bits.OnesCount(uint(v)) != 1 {
				return 0, fmt.Errorf("tile at row %d col %d: %d is not a power of two", r, c, v)
			}
			exp := bits.TrailingZeros(uint(v))
			if exp > MaxExponent {
				return 0, fmt.Errorf("tile at row %d col %d: %d exceeds the largest encodable tile %d",
					r, c, v, 1<<MaxExponent)
			}
			b |= Board(exp) << nibbleShift(r, c)
		}
	}
	return b, nil
}

func nibbleShift(row, col int) uint {
	return uint(60 - 4*(row*4+col))
}

// Exponent returns the tile exponent at the given cell (0 for empty).
func (b Board) Exponent(row, col int) int {
	return int(b>>nibbleShift(row, col)) & 0xF
}

// Tile returns the displayed tile value at the given cell (0 for empty).
func (b Board) Tile(row, col int) int {
	exp := b.Exponent(row, col)
	if exp == 0 {
		return 0
	}
	return 1 << exp
}

// Grid unpacks the board back into a 4x4 grid of displayed tile values.
func (b Board) Grid() [4][4]int {
	var grid [4][4]int
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			grid[r][c] = b.Tile(r, c)
		}
	}
	return grid
}

// Rows returns the 4 row slices of the board, top to bottom.
func (b Board) Rows() [4]Row {
	return [4]Row{
		Row(b >> 48 & rowMask),
		Row(b >> 32 & rowMask),
		Row(b >> 16 & rowMask),
		Row(b & rowMask),
	}
}

// Transpose mirrors the board across its main diagonal. It swaps the
// off-diagonal nibbles of each 2x2 block and then the off-diagonal 2x2
// blocks themselves, so it is its own inverse.
func (b Board) Transpose() Board {
	x := uint64(b)
	a1 := x & 0xF0F00F0FF0F00F0F
	a2 := x & 0x0000F0F00000F0F0
	a3 := x & 0x0F0F00000F0F0000
	a := a1 | (a2 << 12) | (a3 >> 12)
	b1 := a & 0xFF00FF0000FF00FF
	b2 := a & 0x00FF00FF00000000
	b3 := a & 0x00000000FF00FF00
	return Board(b1 | (b2 >> 24) | (b3 << 24))
}

// CountEmpty returns the number of empty cells. Each nibble is folded down
// to a single flag bit and the flags are popcounted.
func (b Board) CountEmpty() int {
	x := uint64(b)
	x |= (x >> 2) & 0x3333333333333333
	x |= x >> 1
	return bits.OnesCount64(^x & 0x1111111111111111)
}

// CountDistinct returns the number of distinct nonzero tile exponents on the
// board. The search uses it to derive its adaptive depth limit.
func (b Board) CountDistinct() int {
	var seen uint16
	x := uint64(b)
	for x != 0 {
		seen |= 1 << (x & 0xF)
		x >>= 4
	}
	seen &^= 1
	return bits.OnesCount16(seen)
}

// MaxTile returns the largest displayed tile value on the board.
func (b Board) MaxTile() int {
	maxExp := 0
	x := uint64(b)
	for x != 0 {
		if exp := int(x & 0xF); exp > maxExp {
			maxExp = exp
		}
		x >>= 4
	}
	if maxExp == 0 {
		return 0
	}
	return 1 << maxExp
}

// ExecuteMove slides and merges the whole board in the given direction.
// Horizontal moves are 4 row-table lookups; vertical moves transpose, apply
// the matching horizontal table, and transpose back. If nothing can move,
// the board is returned unchanged; the caller decides what a no-op means.
func (b Board) ExecuteMove(d Direction) Board {
	initTables()
	switch d {
	case Left:
		return b.applyRowDeltas(&rowLeftTable)
	case Right:
		return b.applyRowDeltas(&rowRightTable)
	case Up:
		return b.Transpose().applyRowDeltas(&rowLeftTable).Transpose()
	case Down:
		return b.Transpose().applyRowDeltas(&rowRightTable).Transpose()
	}
	panic(fmt.Sprintf("invalid direction %d", d))
}

func (b Board) applyRowDeltas(table *[numRows]Row) Board {
	ret := uint64(b)
	ret ^= uint64(table[b&rowMask])
	ret ^= uint64(table[(b>>16)&rowMask]) << 16
	ret ^= uint64(table[(b>>32)&rowMask]) << 32
	ret ^= uint64(table[(b>>48)&rowMask]) << 48
	return Board(ret)
}

// A TilePlacement is the pair of successor boards produced by dropping a new
// tile into one specific empty cell.
type TilePlacement struct {
	WithTwo  Board
	WithFour Board
}

// TilePlacements enumerates the successors for every empty cell, one pair
// per cell, scanning cells from the bottom-right corner to the top-left.
// The slice is freshly allocated on every call.
func (b Board) TilePlacements() []TilePlacement {
	placements := make([]TilePlacement, 0, b.CountEmpty())
	tmp := uint64(b)
	tile := Board(1)
	for tile != 0 {
		if tmp&0xF == 0 {
			placements = append(placements, TilePlacement{
				WithTwo:  b | tile,
				WithFour: b | tile<<1,
			})
		}
		tmp >>= 4
		tile <<= 4
	}
	return placements
}

// ToDisplayText returns a bordered text rendering of the board.
func (b Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("+------+------+------+------+\n")
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if t := b.Tile(r, c); t == 0 {
				sb.WriteString("|      ")
			} else {
				fmt.Fprintf(&sb, "|%5d ", t)
			}
		}
		sb.WriteString("|\n+------+------+------+------+\n")
	}
	return sb.String()
}

func (b Board) String() string {
	return fmt.Sprintf("Board(%#016x)", uint64(b))
}
