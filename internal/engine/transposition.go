package engine

import (
	"github.com/hailam/tierchess/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	default:
		return "upper"
	}
}

const (
	ttEntrySize  = 24 // bytes per TTEntry on 64-bit targets
	minTTEntries = 1024
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64     // full Zobrist key, verified on probe
	BestMove board.Move // best or refutation move
	Score    int32      // mate scores stored relative to this node
	Depth    int16      // remaining depth when stored; 0 means empty
	Flag     TTFlag
}

// ProbeResult is the outcome of a transposition table lookup. Move is a
// move-ordering hint whenever Hit is set; Score is only safe to return
// when Usable is set.
type ProbeResult struct {
	Hit    bool
	Usable bool
	Score  int
	Flag   TTFlag
	Depth  int
	Move   board.Move
}

// TTStats counts table traffic since the last Clear.
type TTStats struct {
	Probes     uint64
	Hits       uint64
	Stores     uint64
	Overwrites uint64
}

// TranspositionTable is a fixed-size hash table of search results.
// It is owned by a single search and is not safe for concurrent use.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	stats   TTStats
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	numEntries := uint64(sizeMB) * 1024 * 1024 / ttEntrySize
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries < minTTEntries {
		numEntries = minTTEntries
	}

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up key for a node searched to depth with window (alpha, beta)
// at distance ply from the root.
func (tt *TranspositionTable) Probe(key uint64, depth, alpha, beta, ply int) ProbeResult {
	tt.stats.Probes++

	entry := &tt.entries[key&tt.mask]
	if entry.Key != key || entry.Depth == 0 {
		return ProbeResult{}
	}
	tt.stats.Hits++

	res := ProbeResult{
		Hit:   true,
		Score: AdjustScoreFromTT(int(entry.Score), ply),
		Flag:  entry.Flag,
		Depth: int(entry.Depth) - 1,
		Move:  entry.BestMove,
	}
	if res.Depth < depth {
		return res
	}
	switch entry.Flag {
	case TTExact:
		res.Usable = true
	case TTLowerBound:
		res.Usable = res.Score >= beta
	case TTUpperBound:
		res.Usable = res.Score <= alpha
	}
	return res
}

// Store saves a search result. The slot is overwritten unless it already
// holds an entry searched strictly deeper.
func (tt *TranspositionTable) Store(key uint64, depth, score int, flag TTFlag, bestMove board.Move, ply int) {
	entry := &tt.entries[key&tt.mask]
	stored := int16(depth + 1)
	if entry.Depth > stored {
		return
	}

	tt.stats.Stores++
	if entry.Depth != 0 && entry.Key != key {
		tt.stats.Overwrites++
	}
	*entry = TTEntry{
		Key:      key,
		BestMove: bestMove,
		Score:    int32(AdjustScoreToTT(score, ply)),
		Depth:    stored,
		Flag:     flag,
	}
}

// Clear empties the table and resets statistics.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.stats = TTStats{}
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.entries)) {
		sampleSize = len(tt.entries)
	}
	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 {
			used++
		}
	}
	return used * 1000 / sampleSize
}

// HitRate returns the fraction of probes that found a matching entry.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.stats.Probes == 0 {
		return 0
	}
	return float64(tt.stats.Hits) / float64(tt.stats.Probes)
}

// Stats returns the table counters.
func (tt *TranspositionTable) Stats() TTStats {
	return tt.stats
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() int {
	return len(tt.entries)
}

// AdjustScoreFromTT converts a stored mate score back to root-relative form.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT makes a mate score relative to the storing node.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
