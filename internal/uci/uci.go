// Package uci implements the Universal Chess Interface front end.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
	"github.com/hailam/tierchess/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	tier     string
	moveTime time.Duration
	log      zerolog.Logger

	// Position history for repetition detection
	positionHashes []uint64

	out   io.Writer
	outMu sync.Mutex

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a UCI protocol handler playing tier by default.
func New(eng *engine.Engine, tier string, moveTime time.Duration, out io.Writer, log zerolog.Logger) *UCI {
	u := &UCI{
		engine:   eng,
		tier:     tier,
		moveTime: moveTime,
		out:      out,
		log:      log,
	}
	u.handleNewGame()
	return u
}

// Run reads commands from in until "quit" or end of input.
func (u *UCI) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleStop()
			u.handleNewGame()
		case "position":
			u.handleStop()
			u.handlePosition(args)
		case "go":
			u.handleStop()
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.send("%s", u.position.String())
			u.send("Fen: %s", u.position.FEN())
		default:
			u.send("info string unknown command %s", cmd)
		}
	}
	u.wait()
	return scanner.Err()
}

func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name TierChess")
	u.send("id author TierChess Team")
	u.send("")
	var tiers strings.Builder
	for _, t := range engine.Tiers() {
		tiers.WriteString(" var " + t)
	}
	u.send("option name Tier type combo default %s%s", u.tier, tiers.String())
	u.send("option name MoveTime type spin default %d min 1 max 600000", u.moveTime.Milliseconds())
	u.send("uciok")
}

// handleNewGame resets the position.
func (u *UCI) handleNewGame() {
	u.position = board.NewPosition()
	u.positionHashes = []uint64{u.engine.Hasher().Hash(u.position)}
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesIdx := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesIdx = i
			break
		}
	}
	var moves []string
	if movesIdx < len(args) {
		moves = args[movesIdx+1:]
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesIdx], " "))
		if err != nil {
			u.send("info string invalid position: %v", err)
			return
		}
	default:
		return
	}

	hasher := u.engine.Hasher()
	hashes := []uint64{hasher.Hash(pos)}
	for _, s := range moves {
		m, err := board.ParseUCI(pos, s)
		if err != nil {
			u.send("info string invalid move %s: %v", s, err)
			return
		}
		pos.MakeMove(m)
		hashes = append(hashes, hasher.Hash(pos))
	}
	u.position = pos
	u.positionHashes = hashes
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	opts := ParseGoOptions(args)

	profile, err := engine.Resolve(u.tier)
	if err != nil {
		u.send("info string %v", err)
		u.send("bestmove 0000")
		return
	}
	if opts.Depth > 0 && profile.Search != engine.SearchMCTS {
		profile.DepthCap = opts.Depth
	}
	if opts.Nodes > 0 {
		profile.NodeCap = opts.Nodes
	}
	if opts.Infinite {
		profile.TimeCap = 0
	}
	budget := u.budgetFor(opts)

	sctx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	u.searchDone = make(chan struct{})
	pos := u.position.Copy()
	history := append([]uint64(nil), u.positionHashes...)

	go func() {
		defer close(u.searchDone)
		defer cancel()

		res, err := u.engine.ChooseMoveWithProfile(sctx, pos, profile, budget, history)
		if errors.Is(err, engine.ErrNoLegalMoves) {
			u.send("bestmove 0000")
			return
		}
		if err != nil {
			u.log.Error().Err(err).Msg("search failed")
			u.send("info string %v", err)
			u.send("bestmove 0000")
			return
		}
		u.sendInfo(res)
		u.send("bestmove %s", res.UCI)
	}()
}

// ParseGoOptions parses "go" command arguments.
func ParseGoOptions(args []string) GoOptions {
	opts := GoOptions{}
	ms := func(i int) time.Duration {
		n, _ := strconv.Atoi(args[i])
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		hasValue := i+1 < len(args)
		switch args[i] {
		case "depth":
			if hasValue {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if hasValue {
				opts.Nodes, _ = strconv.ParseUint(args[i+1], 10, 64)
				i++
			}
		case "movetime":
			if hasValue {
				opts.MoveTime = ms(i + 1)
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if hasValue {
				opts.WTime = ms(i + 1)
				i++
			}
		case "btime":
			if hasValue {
				opts.BTime = ms(i + 1)
				i++
			}
		case "winc":
			if hasValue {
				opts.WInc = ms(i + 1)
				i++
			}
		case "binc":
			if hasValue {
				opts.BInc = ms(i + 1)
				i++
			}
		case "movestogo":
			if hasValue {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// budgetFor converts GoOptions to a time budget. Zero means the tier's own
// time cap alone applies.
func (u *UCI) budgetFor(opts GoOptions) time.Duration {
	switch {
	case opts.Infinite:
		return 0
	case opts.MoveTime > 0:
		return opts.MoveTime
	case opts.WTime > 0 || opts.BTime > 0:
		return u.timeForMove(opts)
	case opts.Depth > 0 || opts.Nodes > 0:
		return 0
	}
	return u.moveTime
}

// timeForMove determines how much of the clock to spend on this move.
func (u *UCI) timeForMove(opts GoOptions) time.Duration {
	ourTime, ourInc := opts.WTime, opts.WInc
	if u.position.SideToMove() == board.Black {
		ourTime, ourInc = opts.BTime, opts.BInc
	}

	movesRemaining := opts.MovesToGo
	if movesRemaining <= 0 {
		movesRemaining = u.estimateMovesRemaining()
	}

	moveTime := ourTime/time.Duration(movesRemaining) + ourInc*90/100

	// Never use more than 90% of the remaining time
	moveTime = min(moveTime, ourTime*90/100)
	return max(moveTime, 10*time.Millisecond)
}

// estimateMovesRemaining estimates remaining moves based on piece count.
func (u *UCI) estimateMovesRemaining() int {
	totalPieces := bits.OnesCount64(u.position.Occupied())

	if totalPieces > 24 {
		return 40 // Opening/early middlegame
	} else if totalPieces > 12 {
		return 30 // Middlegame
	}
	return 20 // Endgame
}

// sendInfo outputs the search summary in UCI format.
func (u *UCI) sendInfo(res *engine.SearchResult) {
	parts := []string{fmt.Sprintf("depth %d", res.Depth)}

	switch {
	case res.Score > engine.MateThreshold:
		parts = append(parts, fmt.Sprintf("score mate %d", (engine.MateScore-res.Score+1)/2))
	case res.Score < -engine.MateThreshold:
		parts = append(parts, fmt.Sprintf("score mate %d", -(engine.MateScore+res.Score+1)/2))
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", res.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", res.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", res.Elapsed.Milliseconds()))
	if res.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(res.Nodes)/res.Elapsed.Seconds())))
	}
	if len(res.PV) > 0 {
		pv := make([]string, len(res.PV))
		for i, m := range res.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.send("info %s", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel != nil {
		u.cancel()
	}
	u.wait()
}

func (u *UCI) wait() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
		u.cancel = nil
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	v := strings.Join(value, " ")
	switch strings.ToLower(strings.Join(name, " ")) {
	case "tier":
		if _, err := engine.Resolve(v); err != nil {
			u.send("info string %v", err)
			return
		}
		u.tier = v
	case "movetime":
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			u.send("info string invalid MoveTime %q", v)
			return
		}
		u.moveTime = time.Duration(n) * time.Millisecond
	default:
		u.send("info string unknown option %q", strings.Join(name, " "))
	}
}
