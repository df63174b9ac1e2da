package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hailam/tierchess/internal/board"
)

const mateInOneFEN = "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"

func newTestSearcher(ev Evaluator, depth int, tt *TranspositionTable) *Searcher {
	return NewSearcher(SearchConfig{
		Evaluator: ev,
		TT:        tt,
		DepthCap:  depth,
	})
}

func TestSearchFindsMateInOne(t *testing.T) {
	for _, depth := range []int{1, 2, 3} {
		for _, tt := range []*TranspositionTable{nil, NewTranspositionTable(1)} {
			pos := mustParse(t, mateInOneFEN)
			s := newTestSearcher(PSTEvaluator{}, depth, tt)
			r := s.Search(pos, NewBudget(context.Background(), 5*time.Second, 0))

			if r.Move.String() != "a1a8" {
				t.Errorf("depth %d tt=%v: move = %s, want a1a8", depth, tt != nil, r.Move)
			}
			if r.Score <= MateThreshold {
				t.Errorf("depth %d tt=%v: score %d is not a mate score", depth, tt != nil, r.Score)
			}
		}
	}
}

func TestSearchAvoidsMate(t *testing.T) {
	// Black to move must stop Ra8#; any of the luft or block moves will do
	// but the search must not report being mated.
	pos := mustParse(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 b - - 0 1")
	s := newTestSearcher(PhaseEvaluator{}, 4, NewTranspositionTable(1))
	r := s.Search(pos, NewBudget(context.Background(), 10*time.Second, 0))
	if r.Score < -MateThreshold {
		t.Errorf("score %d: search thinks black is lost", r.Score)
	}
}

func TestSearchWinsHangingQueen(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	s := newTestSearcher(MaterialEvaluator{}, 2, nil)
	r := s.Search(pos, NewBudget(context.Background(), 5*time.Second, 0))
	if r.Move.String() != "d2d5" {
		t.Errorf("move = %s, want d2d5", r.Move)
	}
	if r.Score < QueenValue-RookValue {
		t.Errorf("score = %d", r.Score)
	}
}

func TestSearchRestoresPosition(t *testing.T) {
	for _, fen := range evalPositions {
		pos := mustParse(t, fen)
		before := pos.FEN()
		s := newTestSearcher(PhaseEvaluator{}, 3, NewTranspositionTable(1))
		s.Search(pos, NewBudget(context.Background(), 2*time.Second, 0))
		if after := pos.FEN(); after != before {
			t.Errorf("position changed: %q -> %q", before, after)
		}
	}
}

func TestSearchPVIsLegal(t *testing.T) {
	pos := mustParse(t, evalPositions[1])
	s := newTestSearcher(PSTEvaluator{}, 4, NewTranspositionTable(4))
	r := s.Search(pos, NewBudget(context.Background(), 10*time.Second, 0))
	if len(r.PV) == 0 || !r.PV[0].Same(r.Move) {
		t.Fatalf("PV %v does not start with %s", r.PV, r.Move)
	}

	cur := pos.Copy()
	for i, m := range r.PV {
		mv, err := board.ParseUCI(cur, m.String())
		if err != nil {
			t.Fatalf("PV move %d (%s) illegal: %v", i, m, err)
		}
		cur.MakeMove(mv)
	}
}

func TestSearchDeterministic(t *testing.T) {
	pos := mustParse(t, evalPositions[2])
	run := func() SearchReport {
		s := newTestSearcher(PhaseEvaluator{}, 4, NewTranspositionTable(2))
		return s.Search(pos, NewBudget(context.Background(), 30*time.Second, 0))
	}
	a, b := run(), run()
	if !a.Move.Same(b.Move) || a.Score != b.Score || a.Depth != b.Depth || a.Nodes != b.Nodes {
		t.Errorf("runs differ: %s/%d/%d/%d vs %s/%d/%d/%d",
			a.Move, a.Score, a.Depth, a.Nodes, b.Move, b.Score, b.Depth, b.Nodes)
	}
}

func TestSearchRecordsTTHits(t *testing.T) {
	pos := mustParse(t, evalPositions[1])
	without := newTestSearcher(PSTEvaluator{}, 4, nil).Search(pos, NewBudget(context.Background(), time.Minute, 0))
	with := newTestSearcher(PSTEvaluator{}, 4, NewTranspositionTable(8)).Search(pos, NewBudget(context.Background(), time.Minute, 0))
	t.Logf("nodes without TT %d, with TT %d (hit rate %.2f)", without.Nodes, with.Nodes, with.TTHitRate)
	if with.TTHitRate <= 0 {
		t.Error("no TT hits recorded")
	}
	if without.TTHitRate != 0 {
		t.Error("hit rate reported without a table")
	}
}

func TestSearchBudgetFloor(t *testing.T) {
	pos := board.NewPosition()
	s := newTestSearcher(PhaseEvaluator{}, 20, NewTranspositionTable(1))
	start := time.Now()
	r := s.Search(pos, NewBudget(context.Background(), time.Millisecond, 0))
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("1ms budget took %v", elapsed)
	}
	if _, err := board.ParseUCI(pos, r.Move.String()); err != nil {
		t.Errorf("returned illegal move %s: %v", r.Move, err)
	}
}

func TestSearchNodeCap(t *testing.T) {
	pos := board.NewPosition()
	s := newTestSearcher(PSTEvaluator{}, 20, nil)
	r := s.Search(pos, NewBudget(context.Background(), 0, 500))
	if r.Nodes+r.QNodes > 500 {
		t.Errorf("searched %d nodes with a cap of 500", r.Nodes+r.QNodes)
	}
	if r.Move.IsNone() {
		t.Error("no move under node cap")
	}
}

func TestSearchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pos := board.NewPosition()
	r := newTestSearcher(PSTEvaluator{}, 10, nil).Search(pos, NewBudget(ctx, 0, 0))
	if r.Move.IsNone() {
		t.Error("cancelled search returned no move")
	}
	if r.Depth != 0 {
		t.Errorf("cancelled search completed depth %d", r.Depth)
	}
}

func TestSearchMonotonicDepth(t *testing.T) {
	pos := mustParse(t, evalPositions[2])
	last := 0
	for _, budget := range []time.Duration{5 * time.Millisecond, 50 * time.Millisecond, 500 * time.Millisecond} {
		s := newTestSearcher(PhaseEvaluator{}, 6, NewTranspositionTable(4))
		r := s.Search(pos, NewBudget(context.Background(), budget, 0))
		t.Logf("budget %v: depth %d nodes %d", budget, r.Depth, r.Nodes)
		if r.Depth < last {
			t.Errorf("budget %v reached depth %d, less than %d", budget, r.Depth, last)
		}
		last = r.Depth
	}
}

func TestRepetitionIsDraw(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 10 40")
	h := board.DefaultHasher()
	key := h.Hash(pos)

	s := NewSearcher(SearchConfig{})
	s.pos = pos
	s.path = []uint64{key, 0}
	if !s.isDraw(key) {
		t.Error("repeated position not detected")
	}
	s.path = []uint64{0, key}
	if s.isDraw(key) {
		t.Error("position with the other side to move counted as a repetition")
	}

	fresh := mustParse(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 40")
	s.pos = fresh
	s.path = []uint64{key, 0}
	if s.isDraw(key) {
		t.Error("repetition before the last irreversible move counted")
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{105, "1.05"},
		{-250, "-2.50"},
		{MateScore - 1, "Mate in 1"},
		{MateScore - 3, "Mate in 2"},
		{-MateScore + 2, "Mated in 1"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
