package main

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/tierchess/internal/config"
	"github.com/hailam/tierchess/internal/storage"
	"github.com/hailam/tierchess/internal/valuenet"
)

func TestLoadNet(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DataDir: dir}
	if net := loadNet(cfg, zerolog.Nop()); net != nil {
		t.Fatal("loaded a network from an empty data directory")
	}

	if err := valuenet.NewRandom(1).Save(storage.ValueNetPath(dir)); err != nil {
		t.Fatal(err)
	}
	if net := loadNet(cfg, zerolog.Nop()); net == nil {
		t.Error("network in the data directory not loaded")
	}

	cfg.ValueNet = filepath.Join(dir, "missing.bin")
	if net := loadNet(cfg, zerolog.Nop()); net != nil {
		t.Error("explicit missing path still loaded a network")
	}
}
