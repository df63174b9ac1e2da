package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 12 40",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.FEN(); got != fen {
			t.Errorf("FEN round trip: got %q, want %q", got, fen)
		}
	}
}

func TestParseFENShortForm(t *testing.T) {
	pos, err := ParseFEN("8/8/4k3/8/8/3K4/8/8 w - -")
	if err != nil {
		t.Fatal(err)
	}
	if pos.HalfMoveClock() != 0 || pos.FullMoveNumber() != 1 {
		t.Errorf("counters = %d %d, want 0 1", pos.HalfMoveClock(), pos.FullMoveNumber())
	}
}

func TestParseFENRejects(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "8/8/8/8/8/8/8/8 w"},
		{"seven ranks", "8/8/8/8/8/8/8 w - - 0 1"},
		{"short rank", "rnbqkbn/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"long rank", "rnbqkbnrr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"unknown piece", "rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"no kings", "8/8/8/8/8/8/8/8 w - - 0 1"},
		{"missing black king", "8/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"two white kings", "4k3/8/8/8/8/8/8/3KK3 w - - 0 1"},
		{"pawn on back rank", "P3k3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"nine pawns", "4k3/8/8/8/8/P7/PPPPPPPP/4K3 w - - 0 1"},
		{"bad side", "4k3/8/8/8/8/8/8/4K3 x - - 0 1"},
		{"bad castling char", "4k3/8/8/8/8/8/8/4K3 w X - 0 1"},
		{"castling without rook", "4k3/8/8/8/8/8/8/4K3 w K - 0 1"},
		{"bad ep square", "4k3/8/8/8/8/8/8/4K3 w - e9 0 1"},
		{"ep wrong rank", "4k3/8/8/8/8/8/8/4K3 w - e3 0 1"},
		{"ep without pushed pawn", "4k3/8/8/3P4/8/8/8/4K3 w - e6 0 1"},
		{"ep with own pawn", "4k3/8/8/3PP3/8/8/8/4K3 w - e6 0 1"},
		{"ep square occupied", "4k3/8/4n3/3Pp3/8/8/8/4K3 w - e6 0 1"},
		{"ep origin occupied", "4k3/4n3/8/3Pp3/8/8/8/4K3 w - e6 0 1"},
		{"black ep without pushed pawn", "4k3/8/8/8/4p3/8/8/4K3 b - d3 0 1"},
		{"negative clock", "4k3/8/8/8/8/8/8/4K3 w - - -1 1"},
		{"opponent in check", "4k3/8/8/8/8/8/8/4R2K w - - 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if err == nil {
				t.Fatalf("ParseFEN(%q) succeeded, want error", tc.fen)
			}
			if !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("error %v does not match ErrInvalidPosition", err)
			}
			var ipe *InvalidPositionError
			if !errors.As(err, &ipe) || ipe.FEN != tc.fen {
				t.Errorf("error %v does not carry the input FEN", err)
			}
		})
	}
}

func TestEnPassantMakeUnmake(t *testing.T) {
	fens := []string{
		"4k3/8/8/3Pp3/8/8/8/4K3 w - e6 0 2",
		"4k3/8/8/8/3pP3/8/8/4K3 b - e3 0 1",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		for _, m := range pos.LegalMoves() {
			undo := pos.MakeMove(m)
			pos.UnmakeMove(m, undo)
			if got := pos.FEN(); got != fen {
				t.Fatalf("%s: make/unmake left %q, want %q", m, got, fen)
			}
		}
	}
}

func TestMirrorFEN(t *testing.T) {
	got, err := MirrorFEN("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w Kq e6 0 2")
	if err != nil {
		t.Fatal(err)
	}
	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR b Qk e3 0 2"
	if got != want {
		t.Errorf("MirrorFEN = %q, want %q", got, want)
	}

	back, err := MirrorFEN(got)
	if err != nil {
		t.Fatal(err)
	}
	if back != "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w Kq e6 0 2" {
		t.Errorf("double mirror = %q", back)
	}
}
