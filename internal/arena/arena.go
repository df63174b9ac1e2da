// Package arena plays engine-vs-engine games between difficulty tiers.
package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/board"
	"github.com/hailam/tierchess/internal/engine"
	"github.com/hailam/tierchess/internal/storage"
)

// DefaultMaxPlies ends a game as a draw when neither side has won by then.
const DefaultMaxPlies = 200

// Termination describes how a game ended.
type Termination string

const (
	TermCheckmate    Termination = "checkmate"
	TermStalemate    Termination = "stalemate"
	TermFiftyMove    Termination = "fifty-move rule"
	TermInsufficient Termination = "insufficient material"
	TermRepetition   Termination = "threefold repetition"
	TermMaxMoves     Termination = "max moves"
)

// MatchConfig describes a single game.
type MatchConfig struct {
	White    string // tier name
	Black    string // tier name
	StartFEN string // empty means the standard start position
	MaxPlies int    // 0 means DefaultMaxPlies
	MoveTime time.Duration
}

// Result is a finished game.
type Result struct {
	ID          string
	White       string
	Black       string
	StartFEN    string
	FinalFEN    string
	Moves       []string // SAN
	Result      string   // storage.ResultWhite, ResultBlack or ResultDraw
	Termination Termination
	StartedAt   time.Time
	Duration    time.Duration
	AvgMoveTime time.Duration
}

// Record converts the result for storage.
func (r *Result) Record(batchID string) *storage.MatchRecord {
	return &storage.MatchRecord{
		ID:          r.ID,
		BatchID:     batchID,
		White:       r.White,
		Black:       r.Black,
		StartFEN:    r.StartFEN,
		Moves:       r.Moves,
		Result:      r.Result,
		Termination: string(r.Termination),
		StartedAt:   r.StartedAt,
		Duration:    r.Duration,
		AvgMoveTime: r.AvgMoveTime,
	}
}

// PlayMatch plays one game to completion. Only an invalid setup or a
// cancelled context stops a game early.
func PlayMatch(ctx context.Context, eng *engine.Engine, cfg MatchConfig, log zerolog.Logger) (*Result, error) {
	if cfg.StartFEN == "" {
		cfg.StartFEN = board.StartFEN
	}
	if cfg.MaxPlies <= 0 {
		cfg.MaxPlies = DefaultMaxPlies
	}
	pos, err := board.ParseFEN(cfg.StartFEN)
	if err != nil {
		return nil, err
	}
	var profiles [2]engine.BudgetProfile
	for i, tier := range []string{cfg.White, cfg.Black} {
		if profiles[i], err = engine.Resolve(tier); err != nil {
			return nil, err
		}
	}

	res := &Result{
		ID:        uuid.NewString(),
		White:     cfg.White,
		Black:     cfg.Black,
		StartFEN:  cfg.StartFEN,
		StartedAt: time.Now(),
	}
	hasher := eng.Hasher()
	key := hasher.Hash(pos)
	history := []uint64{key}
	seen := map[uint64]int{key: 1}
	var thinking time.Duration

	for {
		if term, ok := finished(pos, seen[key], len(res.Moves), cfg.MaxPlies); ok {
			res.Termination = term
			res.Result = storage.ResultDraw
			if term == TermCheckmate {
				res.Result = storage.ResultWhite
				if pos.SideToMove() == board.White {
					res.Result = storage.ResultBlack
				}
			}
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sr, err := eng.ChooseMoveWithProfile(ctx, pos, profiles[pos.SideToMove()], cfg.MoveTime, history)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", len(res.Moves)+1, err)
		}
		thinking += sr.Elapsed
		res.Moves = append(res.Moves, sr.SAN)
		pos.MakeMove(sr.Move)
		key = hasher.Hash(pos)
		history = append(history, key)
		seen[key]++
	}

	res.FinalFEN = pos.FEN()
	res.Duration = time.Since(res.StartedAt)
	if n := len(res.Moves); n > 0 {
		res.AvgMoveTime = thinking / time.Duration(n)
	}
	log.Info().
		Str("id", res.ID).
		Str("white", res.White).
		Str("black", res.Black).
		Str("result", res.Result).
		Str("termination", string(res.Termination)).
		Int("plies", len(res.Moves)).
		Msg("match finished")
	return res, nil
}

func finished(pos *board.Position, repeats, plies, maxPlies int) (Termination, bool) {
	switch pos.Status() {
	case board.Checkmate:
		return TermCheckmate, true
	case board.Stalemate:
		return TermStalemate, true
	case board.FiftyMoveDraw:
		return TermFiftyMove, true
	case board.InsufficientMaterial:
		return TermInsufficient, true
	}
	if repeats >= 3 {
		return TermRepetition, true
	}
	if plies >= maxPlies {
		return TermMaxMoves, true
	}
	return "", false
}
