package engine

import (
	"github.com/hailam/tierchess/internal/board"
)

const (
	pawnEntrySize     = 16 // bytes per pawnEntry on 64-bit targets
	defaultPawnSizeMB = 1
)

// pawnEntry holds the weighted pawn-structure terms for both colors, from
// White's point of view. Pawnless positions key to zero and score zero, so
// an empty slot already answers them correctly.
type pawnEntry struct {
	key uint64
	mg  int32
	eg  int32
}

// PawnTable caches pawn-structure terms by pawn key. It is not safe for
// concurrent use; each search gets its own.
type PawnTable struct {
	entries []pawnEntry
	mask    uint64
	hasher  *board.Hasher

	probes uint64
	hits   uint64
}

// NewPawnTable creates a pawn table of about sizeMB megabytes keyed by
// hasher's pawn keys.
func NewPawnTable(sizeMB int, hasher *board.Hasher) *PawnTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	if hasher == nil {
		hasher = board.DefaultHasher()
	}
	n := sizeMB * 1024 * 1024 / pawnEntrySize
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return &PawnTable{
		entries: make([]pawnEntry, size),
		mask:    uint64(size - 1),
		hasher:  hasher,
	}
}

// Terms returns the pawn-structure terms for pos, computing and storing
// them on a miss.
func (pt *PawnTable) Terms(pos *board.Position) (mg, eg int) {
	key := pt.hasher.PawnKey(pos)
	e := &pt.entries[key&pt.mask]
	pt.probes++
	if e.key == key {
		pt.hits++
		return int(e.mg), int(e.eg)
	}
	mg, eg = pawnTerms(pos)
	*e = pawnEntry{key: key, mg: int32(mg), eg: int32(eg)}
	return mg, eg
}

// HitRate reports the fraction of lookups answered from the table.
func (pt *PawnTable) HitRate() float64 {
	if pt.probes == 0 {
		return 0
	}
	return float64(pt.hits) / float64(pt.probes)
}

// Clear empties the table and resets its counters.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
	pt.probes, pt.hits = 0, 0
}
