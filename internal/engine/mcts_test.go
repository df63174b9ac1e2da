package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/hailam/tierchess/internal/board"
)

func newTestMCTS(seed int64, sims int) *MCTS {
	rollout := NewRolloutEvaluator(PSTEvaluator{}, 8, 4, rand.New(rand.NewSource(seed)))
	return NewMCTS(MCTSConfig{
		Leaf:           NewCachedLeafEvaluator(rollout, nil, 0),
		Exploration:    DefaultExploration,
		MaxSimulations: sims,
	})
}

func TestMCTSRobustChild(t *testing.T) {
	pos := mustParse(t, evalPositions[2])
	r := newTestMCTS(7, 300).Search(pos, NewBudget(context.Background(), time.Minute, 0))

	if r.Simulations != 300 {
		t.Fatalf("simulations = %d, want 300", r.Simulations)
	}
	if len(r.Children) == 0 {
		t.Fatal("no root children")
	}

	total := 0
	best := r.Children[0]
	for _, c := range r.Children {
		total += c.Visits
		if c.Visits > best.Visits {
			best = c
		}
	}
	if total != r.Simulations {
		t.Errorf("child visits sum to %d, want %d", total, r.Simulations)
	}
	if !r.Move.Same(best.Move) {
		t.Errorf("chose %s (%d visits), most visited is %s (%d visits)",
			r.Move, visitsOf(r, r.Move), best.Move, best.Visits)
	}
}

func visitsOf(r MCTSReport, m board.Move) int {
	for _, c := range r.Children {
		if c.Move.Same(m) {
			return c.Visits
		}
	}
	return -1
}

func TestMCTSDeterministicWithSeed(t *testing.T) {
	pos := mustParse(t, evalPositions[1])
	a := newTestMCTS(11, 200).Search(pos, NewBudget(context.Background(), time.Minute, 0))
	b := newTestMCTS(11, 200).Search(pos, NewBudget(context.Background(), time.Minute, 0))
	if !a.Move.Same(b.Move) {
		t.Fatalf("moves differ: %s vs %s", a.Move, b.Move)
	}
	if len(a.Children) != len(b.Children) {
		t.Fatalf("child counts differ: %d vs %d", len(a.Children), len(b.Children))
	}
	for i := range a.Children {
		if a.Children[i].Visits != b.Children[i].Visits {
			t.Errorf("child %s visits %d vs %d", a.Children[i].Move, a.Children[i].Visits, b.Children[i].Visits)
		}
	}
}

func TestMCTSFindsMateInOne(t *testing.T) {
	pos := mustParse(t, mateInOneFEN)
	r := newTestMCTS(3, 600).Search(pos, NewBudget(context.Background(), time.Minute, 0))
	if r.Move.String() != "a1a8" {
		t.Errorf("move = %s (value %.2f), want a1a8", r.Move, r.Value)
	}
	if r.Value < 0.99 {
		t.Errorf("mating child value = %.3f, want 1", r.Value)
	}
}

func TestMCTSTinyBudget(t *testing.T) {
	pos := board.NewPosition()
	before := pos.FEN()
	start := time.Now()
	r := newTestMCTS(1, 0).Search(pos, NewBudget(context.Background(), time.Millisecond, 0))
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("1ms budget took %v", elapsed)
	}
	if _, err := board.ParseUCI(pos, r.Move.String()); err != nil {
		t.Errorf("illegal move %s: %v", r.Move, err)
	}
	if pos.FEN() != before {
		t.Error("position modified")
	}
}

func TestMCTSTerminalRoot(t *testing.T) {
	pos := mustParse(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	r := newTestMCTS(1, 10).Search(pos, NewBudget(context.Background(), time.Second, 0))
	if !r.Move.IsNone() || r.Simulations != 0 {
		t.Errorf("terminal root produced %s after %d simulations", r.Move, r.Simulations)
	}
}

func TestSelectChildTieBreak(t *testing.T) {
	parent := &mctsNode{visits: 4}
	for i := 0; i < 3; i++ {
		parent.children = append(parent.children, &mctsNode{
			move:   board.Move{From: board.Square(i), To: board.Square(i + 8)},
			visits: 1,
			value:  0.5,
		})
	}
	if got := parent.selectChild(1.4); got != parent.children[0] {
		t.Error("UCB tie not broken by expansion order")
	}
	if got := parent.robustChild(); got != parent.children[0] {
		t.Error("visit tie not broken by expansion order")
	}

	parent.children[2].visits = 2
	if got := parent.robustChild(); got != parent.children[2] {
		t.Error("robust child is not the most visited")
	}
}
