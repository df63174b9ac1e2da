package engine

import (
	"testing"

	"github.com/hailam/tierchess/internal/board"
)

func TestPawnTableMatchesDirect(t *testing.T) {
	pt := NewPawnTable(1, nil)
	cached := PhaseEvaluator{Pawns: pt}
	direct := PhaseEvaluator{}
	fens := append([]string{
		"4k3/8/8/3P4/8/8/8/4K3 w - - 0 1",
		"4k3/pp6/8/8/8/2P5/2P5/4K3 w - - 0 1",
		"r3k3/8/8/8/8/8/8/4K2R w - - 0 1",
	}, evalPositions...)

	// Twice over: the second pass is answered from the table.
	for pass := 0; pass < 2; pass++ {
		for _, fen := range fens {
			pos := mustParse(t, fen)
			if got, want := cached.Evaluate(pos), direct.Evaluate(pos); got != want {
				t.Errorf("pass %d %q: cached %d, direct %d", pass, fen, got, want)
			}
		}
	}
	if pt.HitRate() < 0.5 {
		t.Errorf("hit rate %.2f, want at least 0.5", pt.HitRate())
	}

	pt.Clear()
	if pt.HitRate() != 0 {
		t.Errorf("hit rate after Clear = %.2f", pt.HitRate())
	}
}

func TestPawnTableSharesPawnStructure(t *testing.T) {
	pt := NewPawnTable(1, board.DefaultHasher())
	// Same pawns, different pieces: one miss then one hit.
	a := mustParse(t, "r3k3/pp6/8/8/8/8/PP6/4K2R w - - 0 1")
	b := mustParse(t, "4k3/pp6/8/8/8/8/PP6/R3K3 b - - 0 1")
	mgA, egA := pt.Terms(a)
	mgB, egB := pt.Terms(b)
	if mgA != mgB || egA != egB {
		t.Errorf("terms differ: (%d,%d) vs (%d,%d)", mgA, egA, mgB, egB)
	}
	if pt.HitRate() != 0.5 {
		t.Errorf("hit rate %.2f, want 0.5", pt.HitRate())
	}
}

func TestPawnTableSizing(t *testing.T) {
	for _, mb := range []int{0, 1, 3} {
		pt := NewPawnTable(mb, nil)
		n := len(pt.entries)
		if n&(n-1) != 0 {
			t.Errorf("%d MB: %d entries is not a power of two", mb, n)
		}
		if n*pawnEntrySize > max(mb, 1)*1024*1024 {
			t.Errorf("%d MB: %d entries exceed the size", mb, n)
		}
	}
}
