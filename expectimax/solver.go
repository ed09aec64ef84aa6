// Package expectimax picks moves for the sliding-tile puzzle by exhaustive
// expectation-maximizing search: player move nodes alternate with chance
// nodes for the random tile insertion, down to a probability-pruned,
// depth-bounded horizon, with leaf boards scored by the precomputed row
// heuristic.
package expectimax

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mattvperry/AI-2048/board"
)

const (
	// DefaultProbThreshold prunes subtrees whose cumulative probability is
	// too small to matter; they are scored statically instead.
	DefaultProbThreshold = 1e-4
	// DefaultCacheDepth is the depth below which chance nodes are memoized.
	// Deep nodes are cheap to recompute and would otherwise flood the table.
	DefaultCacheDepth = 6
	// MinDepthLimit is the floor for the adaptive depth limit.
	MinDepthLimit = 3

	// each per-direction table gets this fraction of system memory
	tableMemFraction = 1.0 / 512
)

// Solver runs the expectiminimax search. A zero Solver is not usable; use
// NewSolver. The solver is safe to reuse across turns but a single solver
// must not run two searches at once, since the per-direction transposition
// tables are reused between calls.
type Solver struct {
	probThreshold  float64
	cacheDepth     int
	depthOverride  int
	cacheEnabled   bool
	parallelRoots  bool
	parallelChance bool

	tables [4]*TranspositionTable
}

// NewSolver builds a solver with the default tunables and forces the row
// tables to be built before the first search is timed.
func NewSolver() *Solver {
	board.InitTables()
	s := &Solver{
		probThreshold: DefaultProbThreshold,
		cacheDepth:    DefaultCacheDepth,
		cacheEnabled:  true,
		parallelRoots: true,
	}
	for i := range s.tables {
		s.tables[i] = &TranspositionTable{}
	}
	return s
}

// SetDepthLimit overrides the adaptive depth limit. Zero restores adaptive
// behavior.
func (s *Solver) SetDepthLimit(depth int) {
	s.depthOverride = depth
}

// SetCacheEnabled turns the transposition cache on or off. Disabling it only
// changes how long the search takes, not which move it picks.
func (s *Solver) SetCacheEnabled(enabled bool) {
	s.cacheEnabled = enabled
}

// SetProbThreshold overrides the cumulative-probability pruning threshold.
func (s *Solver) SetProbThreshold(threshold float64) {
	s.probThreshold = threshold
}

// SetParallelRoots controls whether the 4 top-level directions are searched
// concurrently. Each direction owns a private scope either way.
func (s *Solver) SetParallelRoots(parallel bool) {
	s.parallelRoots = parallel
}

// SetParallelChance additionally fans out the placements of each search's
// first chance node across goroutines sharing that scope's cache.
func (s *Solver) SetParallelChance(parallel bool) {
	s.parallelChance = parallel
}

// searchScope is the state private to one top-level direction's search: its
// transposition table, its depth limit, and its instrumentation. Sibling
// chance-node branches inside the scope may run concurrently, so counters
// are atomic.
type searchScope struct {
	solver     *Solver
	table      *TranspositionTable
	depthLimit int

	movesEvaled   atomic.Uint64
	noMoves       atomic.Uint64
	boundaryEvals atomic.Uint64
	cacheHits     atomic.Uint64
	maxDepth      atomic.Int64
}

func (sc *searchScope) observeDepth(depth int) {
	for {
		cur := sc.maxDepth.Load()
		if int64(depth) <= cur || sc.maxDepth.CompareAndSwap(cur, int64(depth)) {
			return
		}
	}
}

// FindBestMove scores the 4 candidate directions and returns the best legal
// one. Only directions that change the board are candidates, so a legal move
// whose subtree happens to score 0 still beats every no-op; ties go to the
// first maximal legal direction in enumeration order. On a stuck board there
// are no candidates and the first direction is returned; the caller is the
// one who decides the game is over.
func (s *Solver) FindBestMove(b board.Board) board.Direction {
	scores := s.ScoreMoves(b)
	best := math.Inf(-1)
	bestMove := board.Directions[0]
	for _, d := range board.Directions {
		if b.ExecuteMove(d) == b {
			continue
		}
		if scores[d] > best {
			best = scores[d]
			bestMove = d
		}
	}
	log.Debug().Stringer("move", bestMove).Float64("score", best).Msg("selected-best-move")
	return bestMove
}

// ScoreMoves independently evaluates each direction's expected score. A
// direction that does not change the board scores 0. The 4 searches share
// nothing but the read-only row tables, so they run concurrently when
// parallelRoots is set.
func (s *Solver) ScoreMoves(b board.Board) [4]float64 {
	tstart := time.Now()
	var scores [4]float64
	if s.parallelRoots {
		g := errgroup.Group{}
		for _, d := range board.Directions {
			d := d
			g.Go(func() error {
				scores[d] = s.scoreTopLevelMove(b, d)
				return nil
			})
		}
		_ = g.Wait() // no branch returns an error
	} else {
		for _, d := range board.Directions {
			scores[d] = s.scoreTopLevelMove(b, d)
		}
	}
	log.Debug().
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Floats64("scores", scores[:]).
		Msg("search-returning")
	return scores
}

func (s *Solver) scoreTopLevelMove(b board.Board, d board.Direction) float64 {
	post := b.ExecuteMove(d)
	if post == b {
		return 0
	}

	depthLimit := s.depthOverride
	if depthLimit == 0 {
		depthLimit = post.CountDistinct() - 2
		if depthLimit < MinDepthLimit {
			depthLimit = MinDepthLimit
		}
	}
	sc := &searchScope{solver: s, table: s.tables[d], depthLimit: depthLimit}
	if s.cacheEnabled {
		sc.table.Reset(tableMemFraction)
	}

	res := sc.scoreChanceNode(post, 0, 1.0)

	log.Debug().
		Stringer("move", d).
		Float64("score", res).
		Int("depth-limit", depthLimit).
		Uint64("moves-evaled", sc.movesEvaled.Load()).
		Uint64("no-moves", sc.noMoves.Load()).
		Uint64("boundary-evals", sc.boundaryEvals.Load()).
		Uint64("cache-hits", sc.cacheHits.Load()).
		Uint64("cache-stores", sc.table.created.Load()).
		Int64("max-depth", sc.maxDepth.Load()).
		Msg("move-scored")
	return res
}

// scoreChanceNode computes the expected score over the game's random tile
// insertion: uniform across empty cells, then 90/10 across a 2 or a 4. The
// expectation is exact under the bounded horizon, not a sample.
func (sc *searchScope) scoreChanceNode(b board.Board, depth int, cprob float64) float64 {
	s := sc.solver
	if cprob < s.probThreshold || depth >= sc.depthLimit {
		sc.observeDepth(depth)
		sc.boundaryEvals.Add(1)
		return board.Heuristic(b)
	}
	if s.cacheEnabled && depth < s.cacheDepth {
		if entry, ok := sc.table.lookup(b); ok && int(entry.depth) <= depth {
			sc.cacheHits.Add(1)
			return entry.score
		}
	}

	numOpen := float64(b.CountEmpty())
	cprob /= numOpen

	placements := b.TilePlacements()
	var res float64
	if depth == 0 && s.parallelChance && len(placements) > 1 {
		// fan the root chance node's branches out across the CPUs; they
		// share this scope's cache and counters
		partials := make([]float64, len(placements))
		g := errgroup.Group{}
		g.SetLimit(runtime.NumCPU())
		for i, pl := range placements {
			i, pl := i, pl
			g.Go(func() error {
				partials[i] = sc.scorePlacement(pl, depth, cprob)
				return nil
			})
		}
		_ = g.Wait() // no branch returns an error
		for _, p := range partials {
			res += p
		}
	} else {
		for _, pl := range placements {
			res += sc.scorePlacement(pl, depth, cprob)
		}
	}
	res /= numOpen

	if s.cacheEnabled && depth < s.cacheDepth {
		sc.table.store(b, res, depth)
	}
	return res
}

func (sc *searchScope) scorePlacement(pl board.TilePlacement, depth int, cprob float64) float64 {
	return sc.scoreMoveNode(pl.WithTwo, depth, cprob*0.9)*0.9 +
		sc.scoreMoveNode(pl.WithFour, depth, cprob*0.1)*0.1
}

// scoreMoveNode evaluates the player's choice: the maximum over the 4
// directions of the chance node on the board that results from each move.
// A direction that changes nothing contributes 0, never an error; on a
// board with no legal move at all the node is worth 0.
func (sc *searchScope) scoreMoveNode(b board.Board, depth int, cprob float64) float64 {
	var best float64
	for _, d := range board.Directions {
		next := b.ExecuteMove(d)
		sc.movesEvaled.Add(1)
		if next == b {
			sc.noMoves.Add(1)
			continue
		}
		if v := sc.scoreChanceNode(next, depth+1, cprob); v > best {
			best = v
		}
	}
	return best
}
