package engine

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestTiers(t *testing.T) {
	tiers := Tiers()
	if len(tiers) != 8 {
		t.Fatalf("got %d tiers: %v", len(tiers), tiers)
	}
	if !sort.StringsAreSorted(tiers) {
		t.Errorf("tiers not sorted: %v", tiers)
	}
	for _, name := range tiers {
		p, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if p.Name != name {
			t.Errorf("profile %q has name %q", name, p.Name)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("level9")
	if !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("err = %v", err)
	}
	var ute *UnknownTierError
	if !errors.As(err, &ute) || ute.Name != "level9" {
		t.Errorf("err = %#v", err)
	}
}

func TestTierShapes(t *testing.T) {
	tests := []struct {
		tier   string
		search SearchKind
		eval   EvaluatorKind
		tt     bool
	}{
		{TierLevel1, SearchMinimax, EvalPST, false},
		{TierLevel2, SearchMinimax, EvalMaterial, false},
		{TierLevel3, SearchAlphaBeta, EvalPST, false},
		{TierLevel4, SearchAlphaBeta, EvalPhase, true},
		{TierLevel5, SearchAlphaBeta, EvalPST, false},
		{TierUltimate, SearchAlphaBeta, EvalPhase, true},
		{TierMCTS, SearchMCTS, EvalRollout, false},
		{TierMCTSCNN, SearchMCTS, EvalLearned, false},
	}
	for _, tc := range tests {
		p, _ := Resolve(tc.tier)
		if p.Search != tc.search || p.Evaluator != tc.eval || p.UseTT != tc.tt {
			t.Errorf("%s: %v/%v/tt=%v, want %v/%v/tt=%v",
				tc.tier, p.Search, p.Evaluator, p.UseTT, tc.search, tc.eval, tc.tt)
		}
	}
}

func TestEffectiveTime(t *testing.T) {
	capped := BudgetProfile{TimeCap: time.Second}
	open := BudgetProfile{}
	tests := []struct {
		p      BudgetProfile
		budget time.Duration
		want   time.Duration
	}{
		{capped, 0, time.Second},
		{capped, 200 * time.Millisecond, 200 * time.Millisecond},
		{capped, 5 * time.Second, time.Second},
		{open, 300 * time.Millisecond, 300 * time.Millisecond},
		{open, 0, 0},
		{open, -time.Second, 0},
	}
	for _, tc := range tests {
		if got := tc.p.effectiveTime(tc.budget); got != tc.want {
			t.Errorf("cap %v budget %v: got %v, want %v", tc.p.TimeCap, tc.budget, got, tc.want)
		}
	}
}
