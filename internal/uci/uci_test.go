package uci

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
	"github.com/hailam/tierchess/internal/engine"
)

func run(t *testing.T, tier, script string) []string {
	t.Helper()
	var out bytes.Buffer
	u := New(engine.NewEngine(engine.Options{Seed: 1}), tier, 100*time.Millisecond, &out, zerolog.Nop())
	if err := u.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func bestmove(t *testing.T, lines []string) string {
	t.Helper()
	for _, l := range lines {
		if strings.HasPrefix(l, "bestmove ") {
			return strings.TrimPrefix(l, "bestmove ")
		}
	}
	t.Fatalf("no bestmove in %q", lines)
	return ""
}

func contains(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func TestHandshake(t *testing.T) {
	lines := run(t, engine.TierLevel3, "uci\nisready\nquit\n")
	if !contains(lines, "uciok") || !contains(lines, "readyok") {
		t.Errorf("handshake output %q", lines)
	}
	if !contains(lines, "option name Tier type combo default level3") || !contains(lines, "var mcts_cnn") {
		t.Errorf("tier option missing: %q", lines)
	}
}

func TestGoFromMoves(t *testing.T) {
	lines := run(t, engine.TierLevel4, "position startpos moves e2e4 e7e5 g1f3\ngo movetime 50\nisready\n")
	mv := bestmove(t, lines)

	pos := board.NewPosition()
	for _, s := range []string{"e2e4", "e7e5", "g1f3"} {
		m, _ := board.ParseUCI(pos, s)
		pos.MakeMove(m)
	}
	if _, err := board.ParseUCI(pos, mv); err != nil {
		t.Errorf("bestmove %s illegal after 1.e4 e5 2.Nf3: %v", mv, err)
	}
	if !contains(lines, "info depth") {
		t.Errorf("no info line in %q", lines)
	}
}

func TestGoMate(t *testing.T) {
	lines := run(t, engine.TierLevel3, "position fen 6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1\ngo depth 2\nisready\n")
	if mv := bestmove(t, lines); mv != "a1a8" {
		t.Errorf("bestmove %s, want a1a8", mv)
	}
	if !contains(lines, "score mate 1") {
		t.Errorf("mate score missing: %q", lines)
	}
}

func TestGoNoLegalMoves(t *testing.T) {
	lines := run(t, engine.TierLevel3, "position fen rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3\ngo\nisready\n")
	if mv := bestmove(t, lines); mv != "0000" {
		t.Errorf("bestmove %s on a mated position", mv)
	}
}

func TestIsReadyDuringInfiniteSearch(t *testing.T) {
	type result struct {
		lines []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		var out bytes.Buffer
		u := New(engine.NewEngine(engine.Options{Seed: 1}), engine.TierMCTS, 100*time.Millisecond, &out, zerolog.Nop())
		err := u.Run(context.Background(), strings.NewReader("position startpos\ngo infinite\nisready\nstop\nquit\n"))
		done <- result{strings.Split(strings.TrimSpace(out.String()), "\n"), err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatal(r.err)
		}
		ready, best := -1, -1
		for i, l := range r.lines {
			switch {
			case l == "readyok":
				ready = i
			case strings.HasPrefix(l, "bestmove "):
				best = i
			}
		}
		if ready < 0 || best < 0 || ready > best {
			t.Errorf("want readyok before bestmove, got %q", r.lines)
		}
		if _, err := board.ParseUCI(board.NewPosition(), bestmove(t, r.lines)); err != nil {
			t.Error(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("isready blocked behind an infinite search")
	}
}

func TestUnknownCommandWithPercent(t *testing.T) {
	lines := run(t, engine.TierLevel1, "frobnicate%d%s\n")
	if !contains(lines, "info string unknown command frobnicate%d%s") {
		t.Errorf("command echoed as %q", lines)
	}
	for _, l := range lines {
		if strings.Contains(l, "%!") {
			t.Errorf("format verb leaked into output: %q", l)
		}
	}
}

func TestSetOption(t *testing.T) {
	lines := run(t, engine.TierLevel3, "setoption name Tier value grandmaster\nsetoption name Tier value level1\nsetoption name MoveTime value 20\nposition startpos\ngo\nisready\n")
	if !contains(lines, "unknown tier") {
		t.Errorf("bad tier not reported: %q", lines)
	}
	if _, err := board.ParseUCI(board.NewPosition(), bestmove(t, lines)); err != nil {
		t.Error(err)
	}
}

func TestBadPosition(t *testing.T) {
	lines := run(t, engine.TierLevel1, "position fen not-a-fen\nposition startpos moves e2e5\nd\n")
	if !contains(lines, "invalid position") || !contains(lines, "invalid move e2e5") {
		t.Errorf("errors not reported: %q", lines)
	}
	if !contains(lines, "Fen: "+board.StartFEN) {
		t.Errorf("position changed after bad input: %q", lines)
	}
}

func TestParseGoOptions(t *testing.T) {
	opts := ParseGoOptions(strings.Fields("wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20 depth 7 nodes 9000"))
	want := GoOptions{
		Depth:     7,
		Nodes:     9000,
		WTime:     time.Minute,
		BTime:     30 * time.Second,
		WInc:      time.Second,
		BInc:      500 * time.Millisecond,
		MovesToGo: 20,
	}
	if opts != want {
		t.Errorf("got %+v, want %+v", opts, want)
	}
	if o := ParseGoOptions([]string{"infinite", "movetime"}); !o.Infinite || o.MoveTime != 0 {
		t.Errorf("got %+v", o)
	}
}

func TestTimeForMove(t *testing.T) {
	u := New(engine.NewEngine(engine.Options{}), engine.TierLevel3, time.Second, &bytes.Buffer{}, zerolog.Nop())
	tests := []struct {
		opts GoOptions
		want time.Duration
	}{
		{GoOptions{WTime: 40 * time.Second}, time.Second}, // 32 pieces: 40 moves to go
		{GoOptions{WTime: 10 * time.Second, MovesToGo: 5, WInc: time.Second}, 2*time.Second + 900*time.Millisecond},
		{GoOptions{WTime: 5 * time.Millisecond}, 10 * time.Millisecond},
		{GoOptions{MoveTime: 123 * time.Millisecond}, 123 * time.Millisecond},
		{GoOptions{Depth: 4}, 0},
		{GoOptions{}, time.Second},
	}
	for _, tc := range tests {
		if got := u.budgetFor(tc.opts); got != tc.want {
			t.Errorf("%+v: got %v, want %v", tc.opts, got, tc.want)
		}
	}
}
