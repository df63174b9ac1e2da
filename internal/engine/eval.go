// Package engine implements the tiered chess search core: evaluators,
// transposition table, alpha-beta and Monte Carlo tree search, and the
// budget profiles that turn them into difficulty levels.
package engine

import (
	"math/bits"

	"github.com/hailam/tierchess/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
)

// pieceValues is indexed by PieceType. Kings carry no material value; mate
// is scored by the search.
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0, 0}

// Evaluator scores a non-terminal position in centipawns from the point of
// view of the side to move. Implementations must be pure functions of the
// position and safe for concurrent use.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(pos *board.Position) int

// Evaluate calls f(pos).
func (f EvaluatorFunc) Evaluate(pos *board.Position) int {
	return f(pos)
}

// relative converts a White-positive score to side-to-move-positive.
func relative(pos *board.Position, whiteScore int) int {
	if pos.SideToMove() == board.White {
		return whiteScore
	}
	return -whiteScore
}

// MaterialEvaluator counts standard piece values.
type MaterialEvaluator struct{}

// Evaluate implements Evaluator.
func (MaterialEvaluator) Evaluate(pos *board.Position) int {
	return relative(pos, material(pos))
}

// material returns the White-positive material balance.
func material(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += (pos.Count(board.White, pt) - pos.Count(board.Black, pt)) * pieceValues[pt]
	}
	return score
}

// PSTEvaluator adds piece-square tables, mobility and a castling-rights bonus
// to material.
type PSTEvaluator struct{}

const (
	pstMobilityWeight = 2
	castlingBonus     = 20
)

// Evaluate implements Evaluator.
func (PSTEvaluator) Evaluate(pos *board.Position) int {
	score := material(pos)
	for c := board.White; c <= board.Black; c++ {
		sign := colorSign(c)
		for pt := board.Pawn; pt <= board.King; pt++ {
			table := openingPST[pt]
			bb := pos.Pieces(c, pt)
			for bb != 0 {
				sq := board.Square(bits.TrailingZeros64(bb))
				bb &= bb - 1
				score += sign * table[pstIndex(sq, c)]
			}
		}
	}

	score += pstMobilityWeight * (pos.Mobility(board.White) - pos.Mobility(board.Black))

	cr := pos.CastlingRights()
	if cr.Has(board.White, true) || cr.Has(board.White, false) {
		score += castlingBonus
	}
	if cr.Has(board.Black, true) || cr.Has(board.Black, false) {
		score -= castlingBonus
	}
	return relative(pos, score)
}

func colorSign(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

// psqGain is the piece-square improvement of a quiet move, used for ordering.
func psqGain(m board.Move, us board.Color) int {
	if m.Piece >= board.NoPieceType {
		return 0
	}
	table := openingPST[m.Piece]
	return table[pstIndex(m.To, us)] - table[pstIndex(m.From, us)]
}
