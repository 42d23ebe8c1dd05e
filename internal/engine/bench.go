package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/hailam/chesstt/internal/board"
)

// ErrCorruptEntry is returned by Bench when a probed entry does not match
// any record a worker could have written.
var ErrCorruptEntry = errors.New("engine: corrupt transposition table entry")

// BenchConfig describes a synthetic search workload.
type BenchConfig struct {
	Searches       int    // Number of searches (table generations)
	NodesPerWorker int    // Probe/store pairs per worker per search
	KeySpace       uint64 // Number of distinct positions visited
	Seed           uint64
}

// DefaultBenchConfig returns a workload that keeps a 64MB table busy for a
// few seconds.
func DefaultBenchConfig() BenchConfig {
	return BenchConfig{
		Searches:       8,
		NodesPerWorker: 1 << 20,
		KeySpace:       1 << 22,
		Seed:           1,
	}
}

// BenchResult summarizes a bench run.
type BenchResult struct {
	Searches int           `json:"searches"`
	Threads  int           `json:"threads"`
	Probes   uint64        `json:"probes"`
	Hits     uint64        `json:"hits"`
	Stores   uint64        `json:"stores"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	HashFull int           `json:"hashfull"`
}

// HitRate returns the cache hit rate as a percentage.
func (r BenchResult) HitRate() float64 {
	if r.Probes == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Probes) * 100
}

// NodesPerSecond returns probe throughput across all workers.
func (r BenchResult) NodesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Probes) / r.Elapsed.Seconds()
}

type benchCounters struct {
	probes atomic.Uint64
	hits   atomic.Uint64
	stores atomic.Uint64
}

// Bench runs cfg.Searches searches whose workers hammer the table with the
// prefetch, probe and store pattern of a real search. Every stored move and
// score is a function of the position's key fragment, so any hit that does
// not decode to that payload means a record was torn or mis-packed.
func (s *Session) Bench(ctx context.Context, cfg BenchConfig) (BenchResult, error) {
	if cfg.Searches < 1 || cfg.NodesPerWorker < 1 || cfg.KeySpace == 0 {
		return BenchResult{}, fmt.Errorf("engine: invalid bench config %+v", cfg)
	}

	var counters benchCounters
	start := time.Now()

	for search := 0; search < cfg.Searches; search++ {
		err := s.Search(ctx, func(ctx context.Context, id int, tt *TranspositionTable) error {
			return benchWorker(ctx, tt, cfg, search, id, &counters)
		})
		if err != nil {
			return BenchResult{}, err
		}
	}

	return BenchResult{
		Searches: cfg.Searches,
		Threads:  s.Threads(),
		Probes:   counters.probes.Load(),
		Hits:     counters.hits.Load(),
		Stores:   counters.stores.Load(),
		Elapsed:  time.Since(start),
		HashFull: s.HashFull(),
	}, nil
}

func benchWorker(ctx context.Context, tt *TranspositionTable, cfg BenchConfig, search, id int, counters *benchCounters) error {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(search)<<32|uint64(id)))

	var probes, hits, stores uint64
	defer func() {
		counters.probes.Add(probes)
		counters.hits.Add(hits)
		counters.stores.Add(stores)
	}()

	hash := positionKey(cfg.Seed, rng.Uint64N(cfg.KeySpace))
	for n := 0; n < cfg.NodesPerWorker; n++ {
		if n&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		next := positionKey(cfg.Seed, rng.Uint64N(cfg.KeySpace))
		tt.Prefetch(next)

		ply := rng.IntN(MaxPly)
		entry := tt.Probe(hash)
		probes++
		if entry.Matches(hash) && entry.Flag() != TTNone {
			hits++
			if err := checkPayload(entry, ply); err != nil {
				return fmt.Errorf("worker %d: hash %016x: %w", id, hash, err)
			}
		}

		move, score := benchPayload(uint16(hash))
		if rng.IntN(4) == 0 {
			move = board.NoMove
		}
		depth := rng.IntN(64)
		flag := TTFlag(1 + rng.IntN(3))
		tt.Store(hash, move, score, depth, flag, ply)
		stores++

		hash = next
	}
	return nil
}

// positionKey derives a pseudo-random 64-bit position hash for key id.
func positionKey(seed, id uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], id)
	return xxhash.Sum64(buf[:])
}

// benchPayload is the move and score every bench worker stores for a key
// fragment. Scores stay inside the mate window so ply never changes them.
func benchPayload(key uint16) (board.Move, int) {
	from := board.Square(key & 63)
	to := board.Square((key >> 6) & 63)
	move := board.NewMove(from, to)
	if key&(1<<12) != 0 {
		move = board.NewPromotion(from, to, board.PromotionTypes[(key>>13)&3])
	}
	return move, int(key%2001) - 1000
}

func checkPayload(entry TTEntry, ply int) error {
	wantMove, wantScore := benchPayload(entry.Key)
	if got := entry.ScoreAt(ply); got != wantScore {
		return fmt.Errorf("%w: %s score %d, want %d", ErrCorruptEntry, entry.Flag(), got, wantScore)
	}
	move, ok := entry.BestMove()
	if !ok {
		return nil
	}
	if !move.IsValid() {
		return fmt.Errorf("%w: %s entry holds invalid move %+v", ErrCorruptEntry, entry.Flag(), move)
	}
	if move != wantMove {
		return fmt.Errorf("%w: %s move %s, want %s", ErrCorruptEntry, entry.Flag(), move, wantMove)
	}
	return nil
}
