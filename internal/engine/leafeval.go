package engine

import (
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
	"github.com/hailam/tierchess/internal/valuenet"
)

// ErrNoValueNet is returned by a LearnedEvaluator without a network.
var ErrNoValueNet = errors.New("engine: value network not loaded")

// rolloutScale maps centipawns to the [-1, 1] leaf value range.
const (
	rolloutScale   = 5000
	maxHeuristic   = 0.99
	learnedScale   = 1000
	DefaultTopK    = 4
	DefaultRollout = 14

	DefaultLeafCacheSize = 100000
)

// LeafEvaluator estimates a position's value in [-1, 1] from the side to
// move's point of view. Implementations must leave pos unchanged.
type LeafEvaluator interface {
	EvaluateLeaf(pos *board.Position) (float64, error)
}

// terminalValue returns the value of a finished game for the side to move.
func terminalValue(pos *board.Position) (float64, bool) {
	switch pos.Status() {
	case board.Checkmate:
		return -1, true
	case board.Stalemate, board.FiftyMoveDraw, board.InsufficientMaterial:
		return 0, true
	}
	return 0, false
}

// CentipawnsToValue squashes a centipawn score into the heuristic leaf range.
func CentipawnsToValue(cp int) float64 {
	return clamp(float64(cp)/rolloutScale, -maxHeuristic, maxHeuristic)
}

// ValueToCentipawns is the inverse of CentipawnsToValue for reporting.
func ValueToCentipawns(v float64) int {
	return int(math.Round(v * rolloutScale))
}

// RolloutEvaluator plays a short semi-random game from the leaf, choosing
// uniformly among the TopK best-ordered moves, and scores where it ends.
// It is not safe for concurrent use.
type RolloutEvaluator struct {
	Evaluator Evaluator
	Depth     int
	TopK      int

	rng     *rand.Rand
	orderer *MoveOrderer
}

// NewRolloutEvaluator creates a rollout evaluator drawing from rng.
func NewRolloutEvaluator(ev Evaluator, depth, topK int, rng *rand.Rand) *RolloutEvaluator {
	if ev == nil {
		ev = PSTEvaluator{}
	}
	if depth <= 0 {
		depth = DefaultRollout
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RolloutEvaluator{
		Evaluator: ev,
		Depth:     depth,
		TopK:      topK,
		rng:       rng,
		orderer:   NewMoveOrderer(true),
	}
}

// EvaluateLeaf implements LeafEvaluator.
func (r *RolloutEvaluator) EvaluateLeaf(pos *board.Position) (float64, error) {
	type played struct {
		move board.Move
		undo board.UndoInfo
	}
	stack := make([]played, 0, r.Depth)
	defer func() {
		for i := len(stack) - 1; i >= 0; i-- {
			pos.UnmakeMove(stack[i].move, stack[i].undo)
		}
	}()

	value := 0.0
	for {
		if v, ok := terminalValue(pos); ok {
			value = v
			break
		}
		if len(stack) >= r.Depth {
			value = CentipawnsToValue(r.Evaluator.Evaluate(pos))
			break
		}
		moves := pos.LegalMoves()
		SortMoves(moves, r.orderer.ScoreMoves(pos, moves, 0, board.NoMove))
		k := min(r.TopK, len(moves))
		m := moves[r.rng.Intn(k)]
		stack = append(stack, played{m, pos.MakeMove(m)})
	}

	// Each ply played flips the point of view.
	if len(stack)%2 == 1 {
		value = -value
	}
	return value, nil
}

// LearnedEvaluator wraps a value network. As a LeafEvaluator it fails with
// ErrNoValueNet when Net is nil; as an Evaluator it scales the network
// output to centipawns and uses Fallback when Net is nil.
type LearnedEvaluator struct {
	Net      *valuenet.Network
	Fallback Evaluator
}

// EvaluateLeaf implements LeafEvaluator.
func (l *LearnedEvaluator) EvaluateLeaf(pos *board.Position) (float64, error) {
	if l.Net == nil {
		return 0, ErrNoValueNet
	}
	v := l.Net.Evaluate(pos)
	if math.IsNaN(v) {
		return 0, errors.New("engine: value network returned NaN")
	}
	return clamp(v, -1, 1), nil
}

// Evaluate implements Evaluator.
func (l *LearnedEvaluator) Evaluate(pos *board.Position) int {
	if l.Net == nil {
		if l.Fallback != nil {
			return l.Fallback.Evaluate(pos)
		}
		return MaterialEvaluator{}.Evaluate(pos)
	}
	v, err := l.EvaluateLeaf(pos)
	if err != nil {
		return 0
	}
	return int(math.Round(v * learnedScale))
}

// FallbackEvaluator tries Primary and uses Secondary whenever it fails. The
// first failure is logged.
type FallbackEvaluator struct {
	Primary   LeafEvaluator
	Secondary LeafEvaluator
	Logger    zerolog.Logger

	once      sync.Once
	fallbacks uint64
}

// EvaluateLeaf implements LeafEvaluator.
func (f *FallbackEvaluator) EvaluateLeaf(pos *board.Position) (float64, error) {
	if f.Primary != nil {
		v, err := f.Primary.EvaluateLeaf(pos)
		if err == nil {
			return v, nil
		}
		f.once.Do(func() {
			f.Logger.Warn().Err(err).Msg("leaf evaluator unavailable, falling back")
		})
	}
	f.fallbacks++
	return f.Secondary.EvaluateLeaf(pos)
}

// Fallbacks returns how many evaluations went to Secondary.
func (f *FallbackEvaluator) Fallbacks() uint64 {
	return f.fallbacks
}

// CachedLeafEvaluator memoizes another LeafEvaluator by Zobrist key. When
// full, the older half of the entries is dropped. Not safe for concurrent use.
type CachedLeafEvaluator struct {
	inner   LeafEvaluator
	hasher  *board.Hasher
	cache   map[uint64]float64
	order   []uint64
	maxSize int
	hits    uint64
	misses  uint64
}

// NewCachedLeafEvaluator wraps inner with a cache of at most maxSize entries.
func NewCachedLeafEvaluator(inner LeafEvaluator, hasher *board.Hasher, maxSize int) *CachedLeafEvaluator {
	if hasher == nil {
		hasher = board.DefaultHasher()
	}
	if maxSize <= 0 {
		maxSize = DefaultLeafCacheSize
	}
	return &CachedLeafEvaluator{
		inner:   inner,
		hasher:  hasher,
		cache:   make(map[uint64]float64),
		maxSize: maxSize,
	}
}

// EvaluateLeaf implements LeafEvaluator. Errors are not cached.
func (c *CachedLeafEvaluator) EvaluateLeaf(pos *board.Position) (float64, error) {
	key := c.hasher.Hash(pos)
	if v, ok := c.cache[key]; ok {
		c.hits++
		return v, nil
	}
	c.misses++

	v, err := c.inner.EvaluateLeaf(pos)
	if err != nil {
		return 0, err
	}

	if len(c.cache) >= c.maxSize {
		half := (len(c.order) + 1) / 2
		for _, k := range c.order[:half] {
			delete(c.cache, k)
		}
		c.order = append(c.order[:0], c.order[half:]...)
	}
	c.cache[key] = v
	c.order = append(c.order, key)
	return v, nil
}

// HitRate returns the fraction of lookups served from the cache.
func (c *CachedLeafEvaluator) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Len returns the number of cached entries.
func (c *CachedLeafEvaluator) Len() int {
	return len(c.cache)
}

// Clear empties the cache and its counters.
func (c *CachedLeafEvaluator) Clear() {
	clear(c.cache)
	c.order = c.order[:0]
	c.hits, c.misses = 0, 0
}
