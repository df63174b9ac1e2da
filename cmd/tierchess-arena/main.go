// Command tierchess-arena plays batches of games between two tiers and
// keeps their history.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/arena"
	"github.com/hailam/tierchess/internal/config"
	"github.com/hailam/tierchess/internal/engine"
	"github.com/hailam/tierchess/internal/storage"
	"github.com/hailam/tierchess/internal/valuenet"
)

var (
	tierA       = flag.String("a", "level4", "first tier")
	tierB       = flag.String("b", "level2", "second tier")
	games       = flag.Int("games", 10, "number of games")
	moveTime    = flag.Duration("movetime", 0, "time per move (default from TIERCHESS_MOVE_TIME_MS)")
	maxPlies    = flag.Int("maxplies", arena.DefaultMaxPlies, "plies before a game is drawn")
	startFEN    = flag.String("fen", "", "start position")
	parallel    = flag.Int("parallel", 0, "concurrent games (default from TIERCHESS_ARENA_PARALLEL)")
	noStore     = flag.Bool("nostore", false, "do not save results")
	history     = flag.Bool("history", false, "print stored per-tier statistics and exit")
	profileMode = flag.String("profile", "", "write a cpu or mem profile to the working directory")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("bad configuration")
	}
	log := cfg.Logs.Logger(os.Stderr)

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	var store *storage.Storage
	if !*noStore || *history {
		store, err = openStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("opening storage")
		}
		defer store.Close()
	}
	if *history {
		printHistory(store)
		return
	}

	var net *valuenet.Network
	if cfg.ValueNet != "" {
		if net, err = valuenet.Load(cfg.ValueNet); err != nil {
			log.Warn().Err(err).Msg("value network not loaded")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bc := arena.BatchConfig{
		TierA:    *tierA,
		TierB:    *tierB,
		Games:    *games,
		StartFEN: *startFEN,
		MaxPlies: *maxPlies,
		MoveTime: *moveTime,
		Parallel: *parallel,
		Engine:   engine.Options{ValueNet: net, Seed: cfg.Seed},
		Store:    store,
		Logger:   log,
	}
	if bc.MoveTime == 0 {
		bc.MoveTime = cfg.MoveTime
	}
	if bc.Parallel == 0 {
		bc.Parallel = cfg.Arena.Parallel
	}

	sum, err := arena.RunBatch(ctx, bc)
	if err != nil {
		log.Fatal().Err(err).Msg("batch failed")
	}
	fmt.Printf("%s vs %s: +%d -%d =%d  score %.1f/%d  avg move %v  total %v\n",
		sum.TierA, sum.TierB, sum.WinsA, sum.WinsB, sum.Draws,
		sum.ScoreA(), sum.Games, sum.AvgMoveTime.Round(time.Millisecond), sum.Duration.Round(time.Second))
}

func openStore(cfg *config.Config) (*storage.Storage, error) {
	dataDir, err := storage.DataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	dbDir, err := storage.DatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	return storage.Open(dbDir)
}

func printHistory(store *storage.Storage) {
	stats, err := store.Stats()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, t := range engine.Tiers() {
		s, ok := stats[t]
		if !ok {
			continue
		}
		fmt.Printf("%-10s games %4d  +%d -%d =%d  win rate %.1f%%\n", t, s.Games, s.Wins, s.Losses, s.Draws, s.WinRate())
	}
}
