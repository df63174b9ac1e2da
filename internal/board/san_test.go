package board

import "testing"

func TestToSAN(t *testing.T) {
	tests := []struct {
		fen  string
		uci  string
		want string
	}{
		{StartFEN, "e2e4", "e4"},
		{StartFEN, "g1f3", "Nf3"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", "a1a8", "Ra8#"},
		{"4k3/8/8/8/8/8/8/R3K2R w - - 0 1", "a1a8", "Ra8+"},
		{"4k3/8/8/8/8/8/4K3/R6R w - - 0 1", "a1d1", "Rad1"},
		{"4k3/8/8/8/8/8/4K3/R6R w - - 0 1", "h1f1", "Rhf1"},
		{"4k3/R7/8/8/8/8/8/R3K3 w - - 0 1", "a1a4", "R1a4"},
		{"4k3/1P6/8/8/8/8/8/4K3 w - - 0 1", "b7b8q", "b8=Q+"},
		{"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", "e4d5", "exd5"},
	}
	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		m, err := ParseUCI(pos, tc.uci)
		if err != nil {
			t.Fatalf("ParseUCI(%q): %v", tc.uci, err)
		}
		before := pos.FEN()
		if got := ToSAN(pos, m); got != tc.want {
			t.Errorf("ToSAN(%s) = %q, want %q", tc.uci, got, tc.want)
		}
		if pos.FEN() != before {
			t.Errorf("ToSAN(%s) modified the position", tc.uci)
		}

		back, err := ParseSAN(pos, tc.want)
		if err != nil {
			t.Errorf("ParseSAN(%q): %v", tc.want, err)
			continue
		}
		if !back.Same(m) {
			t.Errorf("ParseSAN(%q) = %s, want %s", tc.want, back, m)
		}
	}
}

func TestParseSANErrors(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"", "e5", "Ke2", "O-O", "Zf3", "Nf4"} {
		if _, err := ParseSAN(pos, s); err == nil {
			t.Errorf("ParseSAN(%q) succeeded, want error", s)
		}
	}
}

func TestMovesToSAN(t *testing.T) {
	pos := NewPosition()
	var moves []Move
	p := pos.Copy()
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		m, err := ParseUCI(p, s)
		if err != nil {
			t.Fatal(err)
		}
		moves = append(moves, m)
		p.MakeMove(m)
	}
	got := MovesToSAN(pos, moves)
	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d = %q, want %q", i, got[i], want[i])
		}
	}
	if pos.FEN() != StartFEN {
		t.Error("MovesToSAN modified the input position")
	}
}
