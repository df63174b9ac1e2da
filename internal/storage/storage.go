package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes
const (
	prefixMatch = "match/"
	prefixBatch = "batch/"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Game results as written in PGN.
const (
	ResultWhite = "1-0"
	ResultBlack = "0-1"
	ResultDraw  = "1/2-1/2"
)

// MatchRecord is one finished engine-vs-engine game.
type MatchRecord struct {
	ID          string        `json:"id"`
	BatchID     string        `json:"batch_id,omitempty"`
	White       string        `json:"white"`
	Black       string        `json:"black"`
	StartFEN    string        `json:"start_fen"`
	Moves       []string      `json:"moves"`
	Result      string        `json:"result"`
	Termination string        `json:"termination"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	AvgMoveTime time.Duration `json:"avg_move_time"`
}

// BatchRecord summarizes a series of games between two tiers.
type BatchRecord struct {
	ID        string        `json:"id"`
	TierA     string        `json:"tier_a"`
	TierB     string        `json:"tier_b"`
	Games     int           `json:"games"`
	WinsA     int           `json:"wins_a"`
	WinsB     int           `json:"wins_b"`
	Draws     int           `json:"draws"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	MatchIDs  []string      `json:"match_ids"`
}

// TierStats aggregates stored games from one tier's point of view.
type TierStats struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// WinRate returns the win rate as a percentage (0-100)
func (s TierStats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games) * 100
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the Storage.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatch stores a match under its ID, replacing any previous record.
func (s *Storage) SaveMatch(m *MatchRecord) error {
	if m.ID == "" {
		return errors.New("match record has no id")
	}
	return s.put(prefixMatch+m.ID, m)
}

// GetMatch loads the match with the given ID.
func (s *Storage) GetMatch(id string) (*MatchRecord, error) {
	m := &MatchRecord{}
	if err := s.get(prefixMatch+id, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMatches returns stored matches, newest first. limit <= 0 returns all.
func (s *Storage) ListMatches(limit int) ([]*MatchRecord, error) {
	var out []*MatchRecord
	err := s.scan(prefixMatch, func(val []byte) error {
		m := &MatchRecord{}
		if err := json.Unmarshal(val, m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveBatch stores a batch summary under its ID.
func (s *Storage) SaveBatch(b *BatchRecord) error {
	if b.ID == "" {
		return errors.New("batch record has no id")
	}
	return s.put(prefixBatch+b.ID, b)
}

// GetBatch loads the batch with the given ID.
func (s *Storage) GetBatch(id string) (*BatchRecord, error) {
	b := &BatchRecord{}
	if err := s.get(prefixBatch+id, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBatches returns stored batches, newest first.
func (s *Storage) ListBatches() ([]*BatchRecord, error) {
	var out []*BatchRecord
	err := s.scan(prefixBatch, func(val []byte) error {
		b := &BatchRecord{}
		if err := json.Unmarshal(val, b); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// Stats tallies every stored match per tier.
func (s *Storage) Stats() (map[string]TierStats, error) {
	matches, err := s.ListMatches(0)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]TierStats)
	record := func(tier string, won, lost bool) {
		ts := stats[tier]
		ts.Games++
		switch {
		case won:
			ts.Wins++
		case lost:
			ts.Losses++
		default:
			ts.Draws++
		}
		stats[tier] = ts
	}
	for _, m := range matches {
		record(m.White, m.Result == ResultWhite, m.Result == ResultBlack)
		record(m.Black, m.Result == ResultBlack, m.Result == ResultWhite)
	}
	return stats, nil
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

func (s *Storage) scan(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
