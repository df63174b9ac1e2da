package engine

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SearchKind selects the search algorithm of a tier.
type SearchKind int

const (
	SearchMinimax SearchKind = iota // full-width minimax, depth 1 is greedy
	SearchAlphaBeta
	SearchMCTS
)

func (k SearchKind) String() string {
	switch k {
	case SearchMinimax:
		return "minimax"
	case SearchAlphaBeta:
		return "alphabeta"
	case SearchMCTS:
		return "mcts"
	}
	return fmt.Sprintf("SearchKind(%d)", int(k))
}

// EvaluatorKind selects the static or leaf evaluator of a tier.
type EvaluatorKind int

const (
	EvalMaterial EvaluatorKind = iota
	EvalPST
	EvalPhase
	EvalLearned
	EvalRollout
)

func (k EvaluatorKind) String() string {
	switch k {
	case EvalMaterial:
		return "material"
	case EvalPST:
		return "pst"
	case EvalPhase:
		return "phase"
	case EvalLearned:
		return "learned"
	case EvalRollout:
		return "rollout"
	}
	return fmt.Sprintf("EvaluatorKind(%d)", int(k))
}

// BudgetProfile is the immutable configuration behind a difficulty tier.
type BudgetProfile struct {
	Name      string
	Search    SearchKind
	Evaluator EvaluatorKind

	DepthCap  int
	NodeCap   uint64
	QNodeCap  uint64
	QDepthCap int
	TimeCap   time.Duration // 0 means the caller's budget alone applies

	UseTT       bool
	TTSizeMB    int
	OrderChecks bool

	Randomization Randomization

	// MCTS only
	Exploration    float64
	RolloutDepth   int
	RolloutTopK    int
	MaxSimulations int
	LeafCacheSize  int
}

// ErrUnknownTier is matched by every *UnknownTierError.
var ErrUnknownTier = errors.New("unknown tier")

// UnknownTierError reports a tier name that is not registered.
type UnknownTierError struct {
	Name string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown tier %q (known: %v)", e.Name, Tiers())
}

// Is reports whether target is ErrUnknownTier.
func (e *UnknownTierError) Is(target error) bool {
	return target == ErrUnknownTier
}

// Tier names
const (
	TierLevel1   = "level1"
	TierLevel2   = "level2"
	TierLevel3   = "level3"
	TierLevel4   = "level4"
	TierLevel5   = "level5"
	TierUltimate = "ultimate"
	TierMCTS     = "mcts"
	TierMCTSCNN  = "mcts_cnn"
)

var profiles = map[string]BudgetProfile{
	TierLevel1: {
		Name:      TierLevel1,
		Search:    SearchMinimax,
		Evaluator: EvalPST,
		DepthCap:  1,
		// Zero value: random among moves tied for best.
	},
	TierLevel2: {
		Name:          TierLevel2,
		Search:        SearchMinimax,
		Evaluator:     EvalMaterial,
		DepthCap:      2,
		Randomization: Randomization{TopK: 3, Margin: -1},
	},
	TierLevel3: {
		Name:          TierLevel3,
		Search:        SearchAlphaBeta,
		Evaluator:     EvalPST,
		DepthCap:      4,
		TimeCap:       600 * time.Millisecond,
		QNodeCap:      5000,
		QDepthCap:     4,
		Randomization: Deterministic,
	},
	TierLevel4: {
		Name:          TierLevel4,
		Search:        SearchAlphaBeta,
		Evaluator:     EvalPhase,
		DepthCap:      6,
		TimeCap:       1500 * time.Millisecond,
		QNodeCap:      DefaultQNodeCap,
		QDepthCap:     DefaultQDepthCap,
		UseTT:         true,
		TTSizeMB:      16,
		OrderChecks:   true,
		Randomization: Deterministic,
	},
	TierLevel5: {
		Name:          TierLevel5,
		Search:        SearchAlphaBeta,
		Evaluator:     EvalPST,
		DepthCap:      3,
		QNodeCap:      DefaultQNodeCap,
		QDepthCap:     DefaultQDepthCap,
		Randomization: Deterministic,
	},
	TierUltimate: {
		Name:          TierUltimate,
		Search:        SearchAlphaBeta,
		Evaluator:     EvalPhase,
		DepthCap:      8,
		TimeCap:       1200 * time.Millisecond,
		QNodeCap:      50000,
		QDepthCap:     12,
		UseTT:         true,
		TTSizeMB:      32,
		OrderChecks:   true,
		Randomization: Deterministic,
	},
	TierMCTS: {
		Name:          TierMCTS,
		Search:        SearchMCTS,
		Evaluator:     EvalRollout,
		TimeCap:       1500 * time.Millisecond,
		Exploration:   1.4,
		RolloutDepth:  14,
		RolloutTopK:   4,
		LeafCacheSize: 100000,
		Randomization: Deterministic,
	},
	TierMCTSCNN: {
		Name:          TierMCTSCNN,
		Search:        SearchMCTS,
		Evaluator:     EvalLearned,
		TimeCap:       1500 * time.Millisecond,
		Exploration:   1.3,
		RolloutDepth:  10,
		RolloutTopK:   4,
		LeafCacheSize: 100000,
		Randomization: Deterministic,
	},
}

// Resolve returns the profile registered under name.
func Resolve(name string) (BudgetProfile, error) {
	p, ok := profiles[name]
	if !ok {
		return BudgetProfile{}, &UnknownTierError{Name: name}
	}
	return p, nil
}

// Tiers returns the registered tier names in sorted order.
func Tiers() []string {
	names := maps.Keys(profiles)
	slices.Sort(names)
	return names
}

// effectiveTime combines the caller's budget with the tier cap; the smaller
// positive one wins.
func (p BudgetProfile) effectiveTime(budget time.Duration) time.Duration {
	switch {
	case budget <= 0:
		return p.TimeCap
	case p.TimeCap <= 0:
		return budget
	default:
		return min(budget, p.TimeCap)
	}
}
