package expectimax

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/mattvperry/AI-2048/board"
)

const entrySize = 24

const numStripes = 256

// A TableEntry memoizes the expected score of one chance node. The depth it
// was computed at is kept so a hit is only taken when the stored value was
// computed with at least as much lookahead as the current visit would get.
// The generation stamp ties the entry to one search; stale generations are
// misses, which makes clearing the whole table an O(1) bump.
type TableEntry struct {
	board board.Board
	score float64
	gen   uint32
	depth uint8
}

// TranspositionTable maps boards to previously computed expected scores. It
// is a fixed-size power-of-two bucket array indexed by a hash of the packed
// board. Collisions simply evict; duplicate computation after an eviction or
// a racing store is fine, we only need the stored value to be internally
// consistent. Buckets are striped across a small set of mutexes so sibling
// branches of a chance node can read and write concurrently.
type TranspositionTable struct {
	table      []TableEntry
	stripes    [numStripes]sync.Mutex
	sizeMask   uint64
	generation uint32

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
}

// Reset sizes the table to the largest power of two that fits in the given
// fraction of system memory, clamped to [2^14, 2^20] entries, and starts a
// new generation, which is what scopes the cache to a single search.
// Reusing the same allocation across searches keeps the per-turn cost flat.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	desiredNElems := fractionOfMemory * (float64(memory.TotalMemory()) / float64(entrySize))
	sizePowerOf2 := int(math.Log2(desiredNElems))
	if sizePowerOf2 < 14 {
		sizePowerOf2 = 14
	}
	if sizePowerOf2 > 20 {
		sizePowerOf2 = 20
	}
	numElems := 1 << sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	if len(t.table) != numElems {
		t.table = make([]TableEntry, numElems)
		log.Debug().Int("num-elems", numElems).
			Int("estimated-total-memory-bytes", numElems*entrySize).
			Msg("transposition-table-size")
	}
	t.generation++
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
}

func (t *TranspositionTable) index(b board.Board) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(b))
	return xxhash.Sum64(buf[:]) & t.sizeMask
}

func (t *TranspositionTable) lookup(b board.Board) (TableEntry, bool) {
	t.lookups.Add(1)
	idx := t.index(b)
	stripe := &t.stripes[idx&(numStripes-1)]
	stripe.Lock()
	entry := t.table[idx]
	stripe.Unlock()
	if entry.gen != t.generation || entry.board != b {
		return TableEntry{}, false
	}
	t.hits.Add(1)
	return entry, true
}

func (t *TranspositionTable) store(b board.Board, score float64, depth int) {
	idx := t.index(b)
	stripe := &t.stripes[idx&(numStripes-1)]
	stripe.Lock()
	// last write wins, including over an unrelated board in the same bucket
	t.table[idx] = TableEntry{board: b, score: score, gen: t.generation, depth: uint8(depth)}
	stripe.Unlock()
	t.created.Add(1)
}
