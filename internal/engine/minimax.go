package engine

import (
	"math/rand"
	"sort"

	"github.com/hailam/tierchess/internal/board"
)

// Randomization picks among near-best root moves. TopK limits the candidate
// count (0 means no limit); Margin is the largest centipawn gap to the best
// score a candidate may have (negative means no limit). The zero value picks
// uniformly among moves tied for best.
type Randomization struct {
	TopK   int
	Margin int
}

// Deterministic always plays the first best move.
var Deterministic = Randomization{TopK: 1}

type scoredMove struct {
	move  board.Move
	score int
}

// pick chooses a move from scored according to r. scored must be non-empty
// and is sorted in place, keeping generation order among equal scores.
func (r Randomization) pick(scored []scoredMove, rng *rand.Rand) scoredMove {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	n := 1
	for n < len(scored) {
		if r.TopK > 0 && n >= r.TopK {
			break
		}
		if r.Margin >= 0 && scored[0].score-scored[n].score > r.Margin {
			break
		}
		n++
	}
	if n == 1 || rng == nil {
		return scored[0]
	}
	return scored[rng.Intn(n)]
}

// MinimaxSearcher is a plain full-width negamax without pruning, used by the
// weakest tiers. Depth 1 is a greedy one-ply search.
type MinimaxSearcher struct {
	Evaluator     Evaluator
	Depth         int
	Randomization Randomization
	Rand          *rand.Rand

	pos    *board.Position
	budget *Budget
	nodes  uint64
}

// Search scores every root move and picks one. If the budget runs out the
// moves scored so far are used; with none scored, the first ordered legal
// move is returned.
func (ms *MinimaxSearcher) Search(pos *board.Position, budget *Budget) SearchReport {
	ms.pos = pos.Copy()
	ms.budget = budget
	ms.nodes = 0
	depth := ms.Depth
	if depth < 1 {
		depth = 1
	}

	var report SearchReport
	moves := ms.pos.LegalMoves()
	if len(moves) == 0 {
		return report
	}
	SortMoves(moves, NewMoveOrderer(false).ScoreMoves(ms.pos, moves, 0, board.NoMove))

	scored := make([]scoredMove, 0, len(moves))
	complete := true
	for _, m := range moves {
		undo := ms.pos.MakeMove(m)
		score := -ms.minimax(depth-1, 1)
		ms.pos.UnmakeMove(m, undo)
		if budget.Expired() && len(scored) > 0 {
			complete = false
			break
		}
		scored = append(scored, scoredMove{m, score})
	}

	choice := ms.Randomization.pick(scored, ms.Rand)
	report.Move = choice.move
	report.Score = choice.score
	report.PV = []board.Move{choice.move}
	report.Depth = depth
	if !complete {
		report.Depth = 0
	}
	report.Nodes = ms.nodes
	report.Elapsed = budget.Elapsed()
	return report
}

func (ms *MinimaxSearcher) minimax(depth, ply int) int {
	ms.nodes++
	ms.budget.Tick()

	moves := ms.pos.LegalMoves()
	if len(moves) == 0 {
		if ms.pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}
	if ms.pos.HalfMoveClock() >= 100 || ms.pos.IsInsufficientMaterial() {
		return 0
	}
	if depth <= 0 || ms.budget.Expired() {
		return clamp(ms.Evaluator.Evaluate(ms.pos), -MateThreshold+1, MateThreshold-1)
	}

	best := -Infinity
	for _, m := range moves {
		undo := ms.pos.MakeMove(m)
		score := -ms.minimax(depth-1, ply+1)
		ms.pos.UnmakeMove(m, undo)
		if score > best {
			best = score
		}
	}
	return best
}
