package valuenet

import (
	"math/bits"

	"github.com/hailam/tierchess/internal/board"
)

// Plane is one 8x8 input channel indexed [rank][file].
type Plane = [8][8]float32

// Input is the encoded network input.
type Input [Planes]Plane

// Encode writes the feature planes for pos into in:
// planes 0-5 white P,N,B,R,Q,K; 6-11 black; 12 side to move (1 = white);
// 13 half-move clock / 100, capped at 1.
func Encode(pos *board.Position, in *Input) {
	*in = Input{}
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			plane := &in[int(c)*6+int(pt)]
			bb := pos.Pieces(c, pt)
			for bb != 0 {
				sq := bits.TrailingZeros64(bb)
				bb &= bb - 1
				plane[sq>>3][sq&7] = 1
			}
		}
	}

	if pos.SideToMove() == board.White {
		fillPlane(&in[12], 1)
	}
	clock := float32(pos.HalfMoveClock()) / 100
	if clock > 1 {
		clock = 1
	}
	fillPlane(&in[13], clock)
}

func fillPlane(p *Plane, v float32) {
	for r := range p {
		for f := range p[r] {
			p[r][f] = v
		}
	}
}
