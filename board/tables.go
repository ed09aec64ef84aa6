package board

import (
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

// Every possible 16-bit row gets three precomputed values: the XOR delta
// that turns it into its slid-left form, the delta for slid-right, and a
// static heuristic score for the row as it stands. Move application and
// board evaluation are then pure table lookups. The tables are built once,
// before any search runs, and are read-only afterwards, so they are shared
// across every goroutine without locking.

const numRows = 1 << 16

// Heuristic weights. Empty cells and available merges are rewarded;
// monotonicity violations and large tile sums are penalized. The baseline
// keeps every reachable score positive so that a dead branch (score 0)
// always loses to any live one.
const (
	heurLostPenalty        = 200000.0
	heurEmptyWeight        = 270.0
	heurMergesWeight       = 700.0
	heurMonotonicityWeight = 47.0
	heurMonotonicityPower  = 4.0
	heurSumWeight          = 11.0
	heurSumPower           = 3.5
)

var (
	rowLeftTable    [numRows]Row
	rowRightTable   [numRows]Row
	heurTable       [numRows]float64
	mergeScoreTable [numRows]float64

	tablesOnce sync.Once
)

// InitTables eagerly builds the row transform and heuristic tables. It is
// safe to call from multiple goroutines; only the first call does any work.
// Move application and scoring trigger it on their own, so calling this is
// only needed to front-load the cost at startup.
func InitTables() {
	initTables()
}

func initTables() {
	tablesOnce.Do(buildTables)
}

func buildTables() {
	for row := 0; row < numRows; row++ {
		line := unpackRow(Row(row))

		mergeScoreTable[row] = mergeScore(line)
		heurTable[row] = rowHeuristic(line)

		slid := slideLineLeft(line)
		result := packRow(slid)
		rowLeftTable[row] = Row(row) ^ result

		revRow := reverseRow(Row(row))
		revResult := reverseRow(result)
		rowRightTable[revRow] = revRow ^ revResult
	}
	log.Debug().Int("rows", numRows).Msg("row-tables-built")
}

// unpackRow splits a row into its 4 exponents, column 0 first.
func unpackRow(r Row) [4]int {
	return [4]int{
		int(r >> 12 & 0xF),
		int(r >> 8 & 0xF),
		int(r >> 4 & 0xF),
		int(r & 0xF),
	}
}

func packRow(line [4]int) Row {
	return Row(line[0]<<12 | line[1]<<8 | line[2]<<4 | line[3])
}

// reverseRow flips the column order of a row.
func reverseRow(r Row) Row {
	return r>>12 | r>>4&0x00F0 | r<<4&0x0F00 | r<<12
}

// slideLineLeft slides and merges one line toward column 0. Each cell can
// take part in at most one merge per slide, and a tile already at
// MaxExponent never merges again.
func slideLineLeft(line [4]int) [4]int {
	for i := 0; i < 3; i++ {
		j := i + 1
		for j < 4 && line[j] == 0 {
			j++
		}
		if j == 4 {
			break
		}
		if line[i] == 0 {
			line[i] = line[j]
			line[j] = 0
			i-- // retry this position with the next tile
		} else if line[i] == line[j] && line[i] != MaxExponent {
			line[i]++
			line[j] = 0
		}
	}
	return line
}

// mergeScore is the total of merge values implied by the tiles on the row,
// matching how the real game accumulates score: a tile of rank r was built
// from (r-1) merges worth 2^r each, minus the value of spawned tiles, which
// the game layer accounts for separately.
func mergeScore(line [4]int) float64 {
	score := 0.0
	for _, rank := range line {
		if rank >= 2 {
			score += float64(rank-1) * float64(int(1)<<rank)
		}
	}
	return score
}

func rowHeuristic(line [4]int) float64 {
	sum := 0.0
	empty := 0
	merges := 0

	prev := 0
	counter := 0
	for _, rank := range line {
		sum += math.Pow(float64(rank), heurSumPower)
		if rank == 0 {
			empty++
			continue
		}
		if prev == rank {
			counter++
		} else if counter > 0 {
			merges += 1 + counter
			counter = 0
		}
		prev = rank
	}
	if counter > 0 {
		merges += 1 + counter
	}

	// Monotonicity is scored against both orientations; a row that is
	// consistently increasing or decreasing pays only the smaller penalty.
	monoLeft := 0.0
	monoRight := 0.0
	for i := 1; i < 4; i++ {
		if line[i-1] > line[i] {
			monoLeft += math.Pow(float64(line[i-1]), heurMonotonicityPower) -
				math.Pow(float64(line[i]), heurMonotonicityPower)
		} else {
			monoRight += math.Pow(float64(line[i]), heurMonotonicityPower) -
				math.Pow(float64(line[i-1]), heurMonotonicityPower)
		}
	}

	return heurLostPenalty +
		heurEmptyWeight*float64(empty) +
		heurMergesWeight*float64(merges) -
		heurMonotonicityWeight*math.Min(monoLeft, monoRight) -
		heurSumWeight*sum
}

// Heuristic statically scores a full board: the sum of the 8 precomputed
// row scores, 4 rows directly and 4 columns through the transpose.
func Heuristic(b Board) float64 {
	initTables()
	return heuristicHelper(b) + heuristicHelper(b.Transpose())
}

func heuristicHelper(b Board) float64 {
	return heurTable[b&rowMask] + heurTable[(b>>16)&rowMask] +
		heurTable[(b>>32)&rowMask] + heurTable[(b>>48)&rowMask]
}

// MergeScore is the game score implied by the tiles on the board, before
// the correction for spawned 4-tiles that the game layer tracks.
func MergeScore(b Board) float64 {
	initTables()
	return mergeScoreTable[b&rowMask] + mergeScoreTable[(b>>16)&rowMask] +
		mergeScoreTable[(b>>32)&rowMask] + mergeScoreTable[(b>>48)&rowMask]
}
