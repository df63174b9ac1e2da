// Command tierchess-uci runs the tiered engine behind the UCI protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/config"
	"github.com/hailam/tierchess/internal/engine"
	"github.com/hailam/tierchess/internal/storage"
	"github.com/hailam/tierchess/internal/uci"
	"github.com/hailam/tierchess/internal/valuenet"
)

var (
	profileMode = flag.String("profile", "", "write a cpu or mem profile to the working directory")
	tier        = flag.String("tier", "", "tier to play (overrides TIERCHESS_DEFAULT_TIER)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("bad configuration")
	}
	// stdout carries the protocol, logs go to stderr
	log := cfg.Logs.Logger(os.Stderr)

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	if *tier != "" {
		cfg.Tier = *tier
	}
	if _, err := engine.Resolve(cfg.Tier); err != nil {
		log.Fatal().Err(err).Msg("bad tier")
	}

	eng := engine.NewEngine(engine.Options{
		ValueNet: loadNet(cfg, log),
		Seed:     cfg.Seed,
		Logger:   log,
	})
	protocol := uci.New(eng, cfg.Tier, cfg.MoveTime, os.Stdout, log)
	if err := protocol.Run(context.Background(), os.Stdin); err != nil {
		log.Error().Err(err).Msg("reading commands")
	}
}

// loadNet loads the value network from the configured path or the data
// directory. A missing network only disables the learned evaluator.
func loadNet(cfg *config.Config, log zerolog.Logger) *valuenet.Network {
	path := cfg.ValueNet
	if path == "" {
		dir, err := storage.DataDir(cfg.DataDir)
		if err != nil {
			log.Warn().Err(err).Msg("no data directory")
			return nil
		}
		path = storage.ValueNetPath(dir)
	}
	net, err := valuenet.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Str("path", path).Msg("value network not found, learned tier falls back to rollouts")
		return nil
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("value network not loaded")
		return nil
	}
	log.Info().Str("path", path).Msg("value network loaded")
	return net
}
