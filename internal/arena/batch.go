package arena

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/tierchess/internal/engine"
	"github.com/hailam/tierchess/internal/storage"
)

// BatchConfig describes a series of games between two tiers. Tier A has
// White in even-numbered games and Black in odd ones.
type BatchConfig struct {
	TierA    string
	TierB    string
	Games    int
	StartFEN string
	MaxPlies int
	MoveTime time.Duration
	Parallel int // concurrent games, 0 means 1

	// Engine options for every game; game i uses Seed+i.
	Engine engine.Options
	Store  *storage.Storage // optional
	Logger zerolog.Logger
}

// Summary is the outcome of a batch from tier A's point of view.
type Summary struct {
	ID          string
	TierA       string
	TierB       string
	Games       int
	WinsA       int
	WinsB       int
	Draws       int
	AvgMoveTime time.Duration
	Duration    time.Duration
	Results     []*Result
}

// ScoreA returns tier A's score with draws counted as half a point.
func (s *Summary) ScoreA() float64 {
	return float64(s.WinsA) + float64(s.Draws)/2
}

// RunBatch plays cfg.Games games and, when a store is configured, saves
// every match and the batch summary.
func RunBatch(ctx context.Context, cfg BatchConfig) (*Summary, error) {
	for _, tier := range []string{cfg.TierA, cfg.TierB} {
		if _, err := engine.Resolve(tier); err != nil {
			return nil, err
		}
	}
	parallel := max(cfg.Parallel, 1)

	sum := &Summary{
		ID:      uuid.NewString(),
		TierA:   cfg.TierA,
		TierB:   cfg.TierB,
		Games:   cfg.Games,
		Results: make([]*Result, cfg.Games),
	}
	log := cfg.Logger.With().Str("batch", sum.ID).Logger()
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < cfg.Games; i++ {
		g.Go(func() error {
			opts := cfg.Engine
			opts.Seed += int64(i)
			opts.Logger = log
			mc := MatchConfig{
				White:    cfg.TierA,
				Black:    cfg.TierB,
				StartFEN: cfg.StartFEN,
				MaxPlies: cfg.MaxPlies,
				MoveTime: cfg.MoveTime,
			}
			if i%2 == 1 {
				mc.White, mc.Black = mc.Black, mc.White
			}
			r, err := PlayMatch(gctx, engine.NewEngine(opts), mc, log)
			if err != nil {
				return err
			}
			sum.Results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sum.Duration = time.Since(started)

	var thinking time.Duration
	plies := 0
	for i, r := range sum.Results {
		aWhite := i%2 == 0
		switch r.Result {
		case storage.ResultDraw:
			sum.Draws++
		case storage.ResultWhite:
			if aWhite {
				sum.WinsA++
			} else {
				sum.WinsB++
			}
		default:
			if aWhite {
				sum.WinsB++
			} else {
				sum.WinsA++
			}
		}
		thinking += r.AvgMoveTime * time.Duration(len(r.Moves))
		plies += len(r.Moves)
	}
	if plies > 0 {
		sum.AvgMoveTime = thinking / time.Duration(plies)
	}

	if cfg.Store != nil {
		if err := save(cfg.Store, sum); err != nil {
			return sum, err
		}
	}
	log.Info().
		Str("a", sum.TierA).
		Str("b", sum.TierB).
		Int("wins_a", sum.WinsA).
		Int("wins_b", sum.WinsB).
		Int("draws", sum.Draws).
		Dur("avg_move_time", sum.AvgMoveTime).
		Msg("batch finished")
	return sum, nil
}

func save(store *storage.Storage, sum *Summary) error {
	rec := &storage.BatchRecord{
		ID:        sum.ID,
		TierA:     sum.TierA,
		TierB:     sum.TierB,
		Games:     sum.Games,
		WinsA:     sum.WinsA,
		WinsB:     sum.WinsB,
		Draws:     sum.Draws,
		StartedAt: time.Now().Add(-sum.Duration),
		Duration:  sum.Duration,
	}
	for _, r := range sum.Results {
		if err := store.SaveMatch(r.Record(sum.ID)); err != nil {
			return err
		}
		rec.MatchIDs = append(rec.MatchIDs, r.ID)
	}
	return store.SaveBatch(rec)
}
