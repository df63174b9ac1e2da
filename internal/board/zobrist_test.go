package board

import "testing"

func TestHashDeterministic(t *testing.T) {
	a := NewHasher(DefaultSeed).Hash(NewPosition())
	b := NewHasher(DefaultSeed).Hash(NewPosition())
	if a != b {
		t.Fatalf("same seed produced %x and %x", a, b)
	}
	if c := NewHasher(42).Hash(NewPosition()); c == a {
		t.Errorf("different seeds produced the same key %x", c)
	}
}

func TestHashTransposition(t *testing.T) {
	h := DefaultHasher()
	play := func(moves ...string) *Position {
		pos := NewPosition()
		for _, s := range moves {
			m, err := ParseUCI(pos, s)
			if err != nil {
				t.Fatal(err)
			}
			pos.MakeMove(m)
		}
		return pos
	}

	a := play("g1f3", "g8f6", "b1c3", "b8c6")
	b := play("b1c3", "b8c6", "g1f3", "g8f6")
	if h.Hash(a) != h.Hash(b) {
		t.Error("transposed move orders hash differently")
	}

	c := play("g1f3", "g8f6", "f3g1", "f6g8")
	if h.Hash(c) != h.Hash(NewPosition()) {
		t.Error("knight shuffle back to start hashes differently")
	}
}

func TestHashFeatures(t *testing.T) {
	h := DefaultHasher()
	base := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	variants := []string{
		"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
		"r3k2r/8/8/8/8/8/8/R3K2R w Kkq - 0 1",
		"r3k2r/8/8/8/8/8/8/R3K2R w - - 0 1",
		"r3k2r/8/8/8/8/8/8/R2K3R w kq - 0 1",
	}
	pos, err := ParseFEN(base)
	if err != nil {
		t.Fatal(err)
	}
	baseKey := h.Hash(pos)
	for _, fen := range variants {
		p, err := ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		if h.Hash(p) == baseKey {
			t.Errorf("%q hashes like %q", fen, base)
		}
	}

	// Counters are not part of the key.
	p, _ := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 7 30")
	if h.Hash(p) != baseKey {
		t.Error("move counters changed the key")
	}

	withEP, _ := ParseFEN("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	noEP, _ := ParseFEN("4k3/8/8/3pP3/8/8/8/4K3 w - - 0 2")
	if h.Hash(withEP) == h.Hash(noEP) {
		t.Error("en passant file not hashed")
	}
}

func TestHashUnmakeRestores(t *testing.T) {
	h := DefaultHasher()
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	key := h.Hash(pos)
	for _, m := range pos.LegalMoves() {
		undo := pos.MakeMove(m)
		if h.Hash(pos) == key {
			t.Errorf("%s did not change the key", m)
		}
		pos.UnmakeMove(m, undo)
		if h.Hash(pos) != key {
			t.Fatalf("key not restored after %s", m)
		}
	}
}

func TestPawnKey(t *testing.T) {
	h := DefaultHasher()
	key := func(fen string) uint64 {
		t.Helper()
		p, err := ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		return h.PawnKey(p)
	}

	a := key("r3k3/pp6/8/8/8/8/PP6/4K2R w - - 0 1")
	if b := key("4k3/pp6/8/8/8/8/PP6/R3K3 b - - 0 1"); a != b {
		t.Error("pieces other than pawns changed the pawn key")
	}
	if b := key("r3k3/pp6/8/8/8/P7/1P6/4K2R w - - 0 1"); a == b {
		t.Error("pawn move kept the pawn key")
	}
	if b := key("r3k3/8/8/8/8/8/8/4K2R w - - 0 1"); b != 0 {
		t.Errorf("pawnless key = %#x, want 0", b)
	}
}
