// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	// Loads .env from the working directory if present.
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

const envPrefix = "TIERCHESS_"

// Config holds settings read from the environment.
type Config struct {
	Logs     LogConfig
	DataDir  string // empty means the platform default
	ValueNet string // weights file for the learned tier
	Seed     int64
	Tier     string
	MoveTime time.Duration
	Arena    ArenaConfig
}

// LogConfig selects the log encoding and minimum level.
type LogConfig struct {
	Style string // json or console
	Level string
}

// ArenaConfig tunes engine-vs-engine batches.
type ArenaConfig struct {
	Parallel int
}

// Defaults
const (
	DefaultTier     = "level4"
	DefaultMoveTime = time.Second
	DefaultLevel    = "info"
	DefaultStyle    = "console"
)

// Load builds a Config from TIERCHESS_* variables. Missing values take
// defaults; malformed numbers are errors.
func Load() (*Config, error) {
	cfg := &Config{
		Logs: LogConfig{
			Style: getenv("LOG_STYLE", DefaultStyle),
			Level: getenv("LOG_LEVEL", DefaultLevel),
		},
		DataDir:  getenv("DATA_DIR", ""),
		ValueNet: getenv("VALUE_NET", ""),
		Tier:     getenv("DEFAULT_TIER", DefaultTier),
		MoveTime: DefaultMoveTime,
		Arena:    ArenaConfig{Parallel: 1},
	}

	if v := getenv("SEED", ""); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		cfg.Seed = seed
	}
	if v := getenv("MOVE_TIME_MS", ""); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%sMOVE_TIME_MS: %w", envPrefix, err)
		}
		if ms < 0 {
			return nil, fmt.Errorf("%sMOVE_TIME_MS: negative value %d", envPrefix, ms)
		}
		cfg.MoveTime = time.Duration(ms) * time.Millisecond
	}
	if v := getenv("ARENA_PARALLEL", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%sARENA_PARALLEL: %w", envPrefix, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("%sARENA_PARALLEL: must be at least 1, got %d", envPrefix, n)
		}
		cfg.Arena.Parallel = n
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Logs.Level)); err != nil {
		return nil, fmt.Errorf("%sLOG_LEVEL: %w", envPrefix, err)
	}
	switch cfg.Logs.Style {
	case "json", "console":
	default:
		return nil, fmt.Errorf("%sLOG_STYLE: unknown style %q", envPrefix, cfg.Logs.Style)
	}
	return cfg, nil
}

// Logger builds a logger writing to w in the configured style and level.
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.Style == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return def
}
