package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
	"github.com/hailam/tierchess/internal/valuenet"
)

// ErrNoLegalMoves is returned when ChooseMove is called on a finished game.
// Callers are expected to check the game state first.
var ErrNoLegalMoves = errors.New("no legal moves")

// SearchResult is created fresh for every ChooseMove call.
type SearchResult struct {
	Move        board.Move
	UCI         string
	SAN         string
	Score       int // centipawns, side to move positive
	Depth       int
	Nodes       uint64
	QNodes      uint64
	PV          []board.Move
	PVSAN       []string
	Elapsed     time.Duration
	TTHitRate   float64
	Simulations int
	Tier        string
}

// Options configures an Engine.
type Options struct {
	Hasher   *board.Hasher     // nil means board.DefaultHasher()
	ValueNet *valuenet.Network // nil disables the learned evaluator
	Seed     int64             // seeds all randomized choices
	Logger   zerolog.Logger
}

// Engine chooses moves for the registered tiers. It holds only read-only
// state and may be used from many goroutines; every call owns its own
// transposition table, tree and position copy.
type Engine struct {
	hasher *board.Hasher
	net    *valuenet.Network
	seed   int64
	logger zerolog.Logger

	mu       sync.Mutex
	ttPools  map[int]*sync.Pool
	pawnPool sync.Pool
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.Hasher == nil {
		opts.Hasher = board.DefaultHasher()
	}
	e := &Engine{
		hasher:  opts.Hasher,
		net:     opts.ValueNet,
		seed:    opts.Seed,
		logger:  opts.Logger,
		ttPools: make(map[int]*sync.Pool),
	}
	e.pawnPool.New = func() any { return NewPawnTable(defaultPawnSizeMB, e.hasher) }
	return e
}

// Hasher returns the engine's Zobrist hasher.
func (e *Engine) Hasher() *board.Hasher {
	return e.hasher
}

// ChooseMove picks a move for the position in fen using the named tier,
// spending at most budget (combined with the tier's own time cap).
// Malformed positions and unknown tiers fail before any search; a budget
// too small for a full iteration still yields a legal move.
func (e *Engine) ChooseMove(ctx context.Context, fen, tier string, budget time.Duration) (*SearchResult, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	profile, err := Resolve(tier)
	if err != nil {
		return nil, err
	}
	return e.ChooseMoveWithProfile(ctx, pos, profile, budget, nil)
}

// ChooseMoveWithProfile runs a search with an explicit profile. history
// holds Zobrist keys of earlier game positions for repetition detection.
// pos is not modified.
func (e *Engine) ChooseMoveWithProfile(ctx context.Context, pos *board.Position, profile BudgetProfile, budget time.Duration, history []uint64) (*SearchResult, error) {
	if !pos.HasLegalMoves() {
		return nil, fmt.Errorf("%s: %w", pos.Status(), ErrNoLegalMoves)
	}

	b := NewBudget(ctx, profile.effectiveTime(budget), profile.NodeCap)
	rng := rand.New(rand.NewSource(e.seed))
	log := e.logger.With().Str("tier", profile.Name).Logger()

	res := &SearchResult{Tier: profile.Name}
	switch profile.Search {
	case SearchMinimax:
		pawns := e.pawnPool.Get().(*PawnTable)
		defer e.pawnPool.Put(pawns)
		ms := &MinimaxSearcher{
			Evaluator:     e.evaluator(profile.Evaluator, pawns),
			Depth:         profile.DepthCap,
			Randomization: profile.Randomization,
			Rand:          rng,
		}
		e.fill(res, ms.Search(pos, b))

	case SearchAlphaBeta:
		var tt *TranspositionTable
		if profile.UseTT {
			tt = e.acquireTT(profile.TTSizeMB)
			defer e.releaseTT(profile.TTSizeMB, tt)
		}
		pawns := e.pawnPool.Get().(*PawnTable)
		defer e.pawnPool.Put(pawns)
		s := NewSearcher(SearchConfig{
			Evaluator:   e.evaluator(profile.Evaluator, pawns),
			TT:          tt,
			Hasher:      e.hasher,
			DepthCap:    profile.DepthCap,
			QNodeCap:    profile.QNodeCap,
			QDepthCap:   profile.QDepthCap,
			OrderChecks: profile.OrderChecks,
			History:     history,
			Logger:      log,
		})
		e.fill(res, s.Search(pos, b))

	case SearchMCTS:
		leaf := NewCachedLeafEvaluator(e.leafEvaluator(profile, rng, log), e.hasher, profile.LeafCacheSize)
		m := NewMCTS(MCTSConfig{
			Leaf:           leaf,
			Exploration:    profile.Exploration,
			MaxSimulations: profile.MaxSimulations,
			Logger:         log,
		})
		r := m.Search(pos, b)
		res.Move = r.Move
		res.Score = r.Score
		res.Depth = r.Depth
		res.Nodes = uint64(r.Simulations)
		res.Simulations = r.Simulations
		res.PV = []board.Move{r.Move}
		res.Elapsed = r.Elapsed
		res.TTHitRate = leaf.HitRate()

	default:
		return nil, fmt.Errorf("tier %s: unsupported search kind %v", profile.Name, profile.Search)
	}

	res.UCI = res.Move.String()
	res.SAN = board.ToSAN(pos, res.Move)
	res.PVSAN = board.MovesToSAN(pos, res.PV)

	log.Info().
		Str("move", res.UCI).
		Str("score", ScoreToString(res.Score)).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Uint64("qnodes", res.QNodes).
		Dur("elapsed", res.Elapsed).
		Msg("move chosen")
	return res, nil
}

func (e *Engine) fill(res *SearchResult, r SearchReport) {
	res.Move = r.Move
	res.Score = r.Score
	res.Depth = r.Depth
	res.Nodes = r.Nodes
	res.QNodes = r.QNodes
	res.PV = r.PV
	res.Elapsed = r.Elapsed
	res.TTHitRate = r.TTHitRate
}

// evaluator returns the static evaluator for kind. pawns caches the
// phase evaluator's pawn terms and must belong to a single search.
func (e *Engine) evaluator(kind EvaluatorKind, pawns *PawnTable) Evaluator {
	switch kind {
	case EvalPST:
		return PSTEvaluator{}
	case EvalPhase:
		return PhaseEvaluator{Pawns: pawns}
	case EvalLearned:
		return &LearnedEvaluator{Net: e.net, Fallback: PhaseEvaluator{Pawns: pawns}}
	default:
		return MaterialEvaluator{}
	}
}

// leafEvaluator builds the MCTS leaf estimator: rollouts, or the value
// network backed by rollouts when it is missing or fails.
func (e *Engine) leafEvaluator(p BudgetProfile, rng *rand.Rand, log zerolog.Logger) LeafEvaluator {
	rollout := NewRolloutEvaluator(PSTEvaluator{}, p.RolloutDepth, p.RolloutTopK, rng)
	if p.Evaluator != EvalLearned {
		return rollout
	}
	return &FallbackEvaluator{
		Primary:   &LearnedEvaluator{Net: e.net},
		Secondary: rollout,
		Logger:    log,
	}
}

func (e *Engine) acquireTT(sizeMB int) *TranspositionTable {
	e.mu.Lock()
	pool, ok := e.ttPools[sizeMB]
	if !ok {
		pool = &sync.Pool{New: func() any { return NewTranspositionTable(sizeMB) }}
		e.ttPools[sizeMB] = pool
	}
	e.mu.Unlock()
	return pool.Get().(*TranspositionTable)
}

func (e *Engine) releaseTT(sizeMB int, tt *TranspositionTable) {
	e.mu.Lock()
	pool := e.ttPools[sizeMB]
	e.mu.Unlock()
	pool.Put(tt)
}
