package engine

import (
	"math"
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/hailam/chesstt/internal/board"
)

// ttEntryBytes is the size of one table slot.
const ttEntryBytes = 8

// TranspositionTable is a fixed-size, lock-free hash table for storing search
// results. Each slot is one atomic 64-bit word holding a packed TTEntry, so
// readers never observe a torn record. Concurrent stores to the same slot may
// lose updates; callers must verify the key fragment of every probed entry.
//
// Probe, Store and Prefetch are safe for concurrent use. Age, Reset and
// Resize touch every slot and must only run while no search is in progress.
type TranspositionTable struct {
	entries   []atomic.Uint64
	megabytes int
	hugePages bool
	epoch     atomic.Uint32
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.allocate(sizeMB)
	return tt
}

func (tt *TranspositionTable) allocate(sizeMB int) {
	if sizeMB < 1 {
		sizeMB = 1
	}
	numEntries := sizeMB * 1024 * 1024 / ttEntryBytes

	tt.entries = make([]atomic.Uint64, numEntries)
	tt.megabytes = sizeMB
	tt.hugePages = adviseHugePages(tt.entries)
	tt.epoch.Store(0)
}

// index maps hash uniformly onto [0, len) using the high word of
// hash*len, which avoids both modulo bias and a power-of-two size.
func (tt *TranspositionTable) index(hash uint64) int {
	hi, _ := bits.Mul64(hash, uint64(len(tt.entries)))
	return int(hi)
}

// Probe returns the entry in the slot for hash. The entry may be empty or
// belong to another position; compare it with TTEntry.Matches.
func (tt *TranspositionTable) Probe(hash uint64) TTEntry {
	return UnpackEntry(tt.entries[tt.index(hash)].Load())
}

// Prefetch hints the CPU to pull the slot for hash into cache ahead of a
// Probe or Store. It has no observable effect.
func (tt *TranspositionTable) Prefetch(hash uint64) {
	prefetch(unsafe.Pointer(&tt.entries[tt.index(hash)]))
}

// Store saves a search result. score is relative to the root and is
// converted to table space using ply, then clamped to the int16 range of the
// packed entry. A result whose quality is below the slot's current entry is
// dropped. Storing board.NoMove over an entry for the same position keeps the
// move already stored there.
func (tt *TranspositionTable) Store(hash uint64, move board.Move, score, depth int, flag TTFlag, ply int) {
	slot := &tt.entries[tt.index(hash)]
	existing := UnpackEntry(slot.Load())

	entry := TTEntry{
		Key:     uint16(hash),
		Move:    NewPackedMove(move),
		Score:   int16(min(max(ScoreToTT(score, ply), math.MinInt16), math.MaxInt16)),
		Depth:   uint8(min(max(depth, 0), 255)),
		AgeFlag: NewAgeFlag(tt.Epoch(), flag),
	}

	if entry.Quality() < existing.Quality() {
		return
	}

	if move == board.NoMove && entry.Key == existing.Key {
		entry.Move = existing.Move
	}

	slot.Store(entry.Pack())
}

// Age starts a new search generation. When the generation counter is about
// to leave its 6-bit range every stored entry is rebased to age 0 first, so
// entries from before the wrap never look newer than fresh ones.
func (tt *TranspositionTable) Age() {
	if tt.epoch.Load() == maxAge {
		for i := range tt.entries {
			slot := &tt.entries[i]
			entry := UnpackEntry(slot.Load())
			entry.AgeFlag = NewAgeFlag(0, entry.AgeFlag.Flag())
			slot.Store(entry.Pack())
		}
		tt.epoch.Store(0)
	}
	tt.epoch.Add(1)
}

// Reset clears every slot without reallocating.
func (tt *TranspositionTable) Reset() {
	for i := range tt.entries {
		tt.entries[i].Store(0)
	}
}

// Resize reallocates the table with the given size in MB. All entries are
// lost and the generation restarts at 0.
func (tt *TranspositionTable) Resize(sizeMB int) {
	tt.allocate(sizeMB)
}

// Epoch returns the current generation (0-63).
func (tt *TranspositionTable) Epoch() uint8 {
	return uint8(tt.epoch.Load())
}

// Len returns the number of slots in the table.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// Megabytes returns the memory budget the table was sized from.
func (tt *TranspositionTable) Megabytes() int {
	return tt.megabytes
}

// HugePages reports whether the kernel accepted the huge page advice for the
// table memory.
func (tt *TranspositionTable) HugePages() bool {
	return tt.hugePages
}

// HashFull returns the permille (parts per thousand) of the table that is used
// by the current generation.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	sampleSize := min(1000, len(tt.entries))

	used := 0
	epoch := tt.Epoch()
	for i := 0; i < sampleSize; i++ {
		e := UnpackEntry(tt.entries[i].Load())
		if e.Depth > 0 && e.Age() == epoch {
			used++
		}
	}

	return used * 1000 / sampleSize
}
