package engine

import (
	"github.com/hailam/tierchess/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures
	PromotionBase   = 950000   // Quiet promotions
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	CheckBonus      = 500      // Quiet moves that give check
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds killer moves for one search.
type MoveOrderer struct {
	killers    [MaxPly][2]board.Move
	checkBonus bool
}

// NewMoveOrderer creates a move orderer. With checkBonus set, quiet checking
// moves are tried before other quiet moves.
func NewMoveOrderer(checkBonus bool) *MoveOrderer {
	return &MoveOrderer{checkBonus: checkBonus}
}

// Clear resets killers for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i] = [2]board.Move{}
	}
}

// ScoreMoves assigns ordering scores: TT move, captures by MVV-LVA,
// promotions, killers, then quiet moves by piece-square gain.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves []board.Move, ply int, ttMove board.Move) []int {
	scores := make([]int, len(moves))
	us := pos.SideToMove()
	for i, m := range moves {
		scores[i] = mo.scoreMove(pos, m, ply, ttMove, us)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move, us board.Color) int {
	if !ttMove.IsNone() && m.Same(ttMove) {
		return TTMoveScore
	}
	if m.IsCapture() {
		s := GoodCaptureBase + mvvLva[m.Captured][m.Piece]*100
		if m.IsPromotion() {
			s += pieceValues[m.Promotion]
		}
		return s
	}
	if m.IsPromotion() {
		return PromotionBase + pieceValues[m.Promotion]
	}
	if ply < MaxPly {
		if mo.killers[ply][0].Same(m) && !m.IsNone() {
			return KillerScore1
		}
		if mo.killers[ply][1].Same(m) && !m.IsNone() {
			return KillerScore2
		}
	}
	s := psqGain(m, us)
	if mo.checkBonus && pos.GivesCheck(m) {
		s += CheckBonus
	}
	return s
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || m.IsCapture() || m.IsPromotion() {
		return
	}
	if mo.killers[ply][0].Same(m) {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// PickMove moves the best-scored move at or after index i to position i.
// Incremental selection sort.
func PickMove(moves []board.Move, scores []int, i int) {
	best := i
	for j := i + 1; j < len(moves); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != i {
		moves[i], moves[best] = moves[best], moves[i]
		scores[i], scores[best] = scores[best], scores[i]
	}
}

// SortMoves orders moves by descending score, keeping generation order for ties.
func SortMoves(moves []board.Move, scores []int) {
	for i := 1; i < len(moves); i++ {
		m, s := moves[i], scores[i]
		j := i
		for j > 0 && scores[j-1] < s {
			moves[j], scores[j] = moves[j-1], scores[j-1]
			j--
		}
		moves[j], scores[j] = m, s
	}
}
