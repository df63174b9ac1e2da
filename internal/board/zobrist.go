package board

import "math/bits"

// DefaultSeed seeds DefaultHasher so keys are reproducible across runs.
const DefaultSeed uint64 = 0x98F107A2BEEF1234

// Hasher holds the Zobrist key tables. It is immutable after construction
// and safe to share between concurrent searches.
type Hasher struct {
	piece     [2][6][64]uint64
	castling  [4]uint64
	enPassant [8]uint64
	side      uint64
}

// prng is xorshift64*, used only to fill the key tables.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// NewHasher builds key tables from the given seed. A zero seed is replaced
// by DefaultSeed since xorshift never leaves the zero state.
func NewHasher(seed uint64) *Hasher {
	if seed == 0 {
		seed = DefaultSeed
	}
	rng := &prng{state: seed}
	h := &Hasher{}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := 0; sq < 64; sq++ {
				h.piece[c][pt][sq] = rng.next()
			}
		}
	}
	for i := range h.castling {
		h.castling[i] = rng.next()
	}
	for i := range h.enPassant {
		h.enPassant[i] = rng.next()
	}
	h.side = rng.next()
	return h
}

var defaultHasher = NewHasher(DefaultSeed)

// DefaultHasher returns the process-wide hasher built from DefaultSeed.
func DefaultHasher() *Hasher {
	return defaultHasher
}

// PawnKey fingerprints pawn placement alone. A position without pawns
// keys to zero.
func (h *Hasher) PawnKey(p *Position) uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		bb := p.Pieces(c, Pawn)
		for bb != 0 {
			sq := bits.TrailingZeros64(bb)
			bb &= bb - 1
			key ^= h.piece[c][Pawn][sq]
		}
	}
	return key
}

// Hash fingerprints piece placement, side to move, castling rights and the
// en passant file.
func (h *Hasher) Hash(p *Position) uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces(c, pt)
			for bb != 0 {
				sq := bits.TrailingZeros64(bb)
				bb &= bb - 1
				key ^= h.piece[c][pt][sq]
			}
		}
	}
	for i := 0; i < 4; i++ {
		if p.castling&(1<<i) != 0 {
			key ^= h.castling[i]
		}
	}
	if p.ep != NoSquare {
		key ^= h.enPassant[p.ep.File()]
	}
	if p.SideToMove() == Black {
		key ^= h.side
	}
	return key
}
