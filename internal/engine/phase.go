package engine

import (
	"math/bits"

	"github.com/hailam/tierchess/internal/board"
)

// Phase weights for minor, rook and queen; a full board sums to maxPhase.
const (
	minorPhase = 1
	rookPhase  = 2
	queenPhase = 4
	maxPhase   = 24
)

// Pawn structure and king safety terms (centipawns).
const (
	passedPawnBase      = 50
	passedPawnPerRank   = 15
	passedPawnSeventh   = 80
	passedPawnEndgame   = 180 // percent of the middlegame bonus
	doubledPawnPenalty  = -15
	isolatedPawnPenalty = -20
	kingBackRankBonus   = 30
	kingOpenFilePenalty = -15
	centerBonus         = 10
	rookOpenFileBonus   = 20
	rookSemiOpenBonus   = 10
)

// Pawn-structure weights in percent, middlegame then endgame.
const (
	pawnWeightMg   = 75
	pawnWeightEg   = 150
	centerWeightMg = 120
	centerWeightEg = 100
)

var (
	fileMasks    [8]uint64
	adjacentMask [8]uint64
	passedMasks  [2][64]uint64
	centerMask   uint64
)

func init() {
	for f := 0; f < 8; f++ {
		fileMasks[f] = 0x0101010101010101 << f
	}
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentMask[f] |= fileMasks[f-1]
		}
		if f < 7 {
			adjacentMask[f] |= fileMasks[f+1]
		}
	}
	for sq := 0; sq < 64; sq++ {
		file, rank := sq&7, sq>>3
		span := fileMasks[file] | adjacentMask[file]
		for r := 0; r < 8; r++ {
			rankMask := uint64(0xFF) << (8 * r)
			if r > rank {
				passedMasks[board.White][sq] |= span & rankMask
			}
			if r < rank {
				passedMasks[board.Black][sq] |= span & rankMask
			}
		}
	}
	for _, s := range []string{"d4", "e4", "d5", "e5"} {
		sq, _ := board.ParseSquare(s)
		centerMask |= 1 << sq
	}
}

// PhaseEvaluator blends middlegame and endgame weight sets by remaining
// material, and scores pawn structure, king safety, center control, rook
// files and mobility. With a nil Pawns table it keeps no state and is
// safe for concurrent use.
type PhaseEvaluator struct {
	Pawns *PawnTable
}

// GamePhase returns the remaining non-pawn material on a 0 (bare) to
// maxPhase (full board) scale.
func GamePhase(pos *board.Position) int {
	phase := 0
	for c := board.White; c <= board.Black; c++ {
		phase += minorPhase * (pos.Count(c, board.Knight) + pos.Count(c, board.Bishop))
		phase += rookPhase * pos.Count(c, board.Rook)
		phase += queenPhase * pos.Count(c, board.Queen)
	}
	if phase > maxPhase {
		phase = maxPhase
	}
	return phase
}

// Evaluate implements Evaluator.
func (ev PhaseEvaluator) Evaluate(pos *board.Position) int {
	var mg, eg int
	if ev.Pawns != nil {
		mg, eg = ev.Pawns.Terms(pos)
	} else {
		mg, eg = pawnTerms(pos)
	}

	m := material(pos)
	mg += m
	eg += m

	for c := board.White; c <= board.Black; c++ {
		sign := colorSign(c)
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces(c, pt)
			for bb != 0 {
				sq := board.Square(bits.TrailingZeros64(bb))
				bb &= bb - 1
				idx := pstIndex(sq, c)
				mg += sign * openingPST[pt][idx]
				eg += sign * endgamePST[pt][idx]
			}
		}

		mg += sign * kingSafety(pos, c)

		center := centerBonus * bits.OnesCount64(pos.ColorOccupied(c)&centerMask)
		mg += sign * center * centerWeightMg / 100
		eg += sign * center * centerWeightEg / 100

		rf := rookFiles(pos, c)
		mg += sign * rf
		eg += sign * rf
	}

	mobility := pos.Mobility(board.White) - pos.Mobility(board.Black)
	mg += mobility
	eg += mobility / 2

	phase := GamePhase(pos)
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase
	return relative(pos, score)
}

// pawnTerms sums the weighted pawn structure of both colors from White's
// point of view. It reads pawns only.
func pawnTerms(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := colorSign(c)
		pmg, peg := pawnStructure(pos, c)
		mg += sign * pmg * pawnWeightMg / 100
		eg += sign * peg * pawnWeightEg / 100
	}
	return mg, eg
}

// pawnStructure returns middlegame and endgame pawn terms for color c.
func pawnStructure(pos *board.Position, c board.Color) (mg, eg int) {
	ours := pos.Pieces(c, board.Pawn)
	theirs := pos.Pieces(c.Other(), board.Pawn)

	bb := ours
	for bb != 0 {
		sq := board.Square(bits.TrailingZeros64(bb))
		bb &= bb - 1
		if passedMasks[c][sq]&theirs != 0 {
			continue
		}
		rel := sq.RelativeRank(c)
		bonus := passedPawnBase + rel*passedPawnPerRank
		mg += bonus
		eg += bonus * passedPawnEndgame / 100
		if rel == 6 {
			mg += passedPawnSeventh
			eg += passedPawnSeventh
		}
	}

	for f := 0; f < 8; f++ {
		n := bits.OnesCount64(ours & fileMasks[f])
		if n == 0 {
			continue
		}
		s := 0
		if n > 1 {
			s += doubledPawnPenalty * (n - 1)
		}
		if ours&adjacentMask[f] == 0 {
			s += isolatedPawnPenalty * n
		}
		mg += s
		eg += s
	}
	return mg, eg
}

// kingSafety rewards a king on its back rank and penalizes files next to it
// without a friendly pawn.
func kingSafety(pos *board.Position, c board.Color) int {
	ksq := pos.KingSquare(c)
	if ksq == board.NoSquare {
		return 0
	}
	score := 0
	if ksq.RelativeRank(c) == 0 {
		score += kingBackRankBonus
	}
	pawns := pos.Pieces(c, board.Pawn)
	for f := ksq.File() - 1; f <= ksq.File()+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		if pawns&fileMasks[f] == 0 {
			score += kingOpenFilePenalty
		}
	}
	return score
}

// rookFiles scores rooks on open and semi-open files.
func rookFiles(pos *board.Position, c board.Color) int {
	ours := pos.Pieces(c, board.Pawn)
	all := ours | pos.Pieces(c.Other(), board.Pawn)
	score := 0
	bb := pos.Pieces(c, board.Rook)
	for bb != 0 {
		sq := board.Square(bits.TrailingZeros64(bb))
		bb &= bb - 1
		file := fileMasks[sq.File()]
		switch {
		case all&file == 0:
			score += rookOpenFileBonus
		case ours&file == 0:
			score += rookSemiOpenBonus
		}
	}
	return score
}
