package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesstt/internal/board"
)

func newTestSession(t *testing.T, threads int) *Session {
	t.Helper()
	s, err := NewSession(Config{HashMB: 1, Threads: threads})
	require.NoError(t, err)
	return s
}

func TestNewSessionValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"ZeroHash", Config{HashMB: 0, Threads: 1}, ErrInvalidHashSize},
		{"HugeHash", Config{HashMB: MaxHashMB + 1, Threads: 1}, ErrInvalidHashSize},
		{"ZeroThreads", Config{HashMB: 1, Threads: 0}, ErrInvalidThreads},
		{"TooManyThreads", Config{HashMB: 1, Threads: MaxThreads + 1}, ErrInvalidThreads},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(tt.cfg)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	s, err := NewSession(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultHashMB, s.Table().Megabytes())
}

func TestSessionSearch(t *testing.T) {
	s := newTestSession(t, 4)

	var seen [4]atomic.Bool
	err := s.Search(context.Background(), func(ctx context.Context, id int, tt *TranspositionTable) error {
		seen[id].Store(true)
		tt.Store(uint64(id+1)<<60, board.NewMove(board.E2, board.E4), id, 1, TTExact, 0)
		return nil
	})
	require.NoError(t, err)

	for id := range seen {
		assert.True(t, seen[id].Load(), "worker %d did not run", id)
		assert.True(t, s.Table().Probe(uint64(id+1)<<60).Matches(uint64(id+1)<<60))
	}
	assert.Equal(t, uint8(1), s.Table().Epoch(), "each search starts a new generation")
}

func TestSessionSearchError(t *testing.T) {
	s := newTestSession(t, 3)
	errBoom := errors.New("boom")

	err := s.Search(context.Background(), func(ctx context.Context, id int, tt *TranspositionTable) error {
		if id == 0 {
			return errBoom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, errBoom)
}

func TestSessionMaintenanceWaitsForSearch(t *testing.T) {
	s := newTestSession(t, 2)
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	searchDone := make(chan error, 1)
	go func() {
		searchDone <- s.Search(context.Background(), func(ctx context.Context, id int, tt *TranspositionTable) error {
			tt.Store(uint64(id+1)<<60, board.NewMove(board.E2, board.E4), 0, 3, TTExact, 0)
			started <- struct{}{}
			<-release
			return nil
		})
	}()
	<-started
	<-started

	var cleared atomic.Bool
	go func() {
		s.NewGame()
		cleared.Store(true)
	}()

	assert.Never(t, cleared.Load, 50*time.Millisecond, 5*time.Millisecond,
		"table cleared while workers were running")

	close(release)
	require.NoError(t, <-searchDone)
	assert.Eventually(t, cleared.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, TTEntry{}, s.Table().Probe(1<<60))
}

func TestSessionNewGame(t *testing.T) {
	s := newTestSession(t, 1)
	const key = 0x1234_5678_9ABC_DEF0

	require.NoError(t, s.Search(context.Background(), func(ctx context.Context, id int, tt *TranspositionTable) error {
		tt.Store(key, board.NewMove(board.D2, board.D4), 15, 5, TTLowerBound, 0)
		return nil
	}))
	require.True(t, s.Table().Probe(key).Matches(key))

	s.NewGame()
	assert.Equal(t, TTEntry{}, s.Table().Probe(key))
}

func TestSessionSetHash(t *testing.T) {
	s := newTestSession(t, 1)

	require.NoError(t, s.SetHash(2))
	assert.Equal(t, 2, s.Table().Megabytes())
	assert.Equal(t, 2*131072, s.Table().Len())

	assert.ErrorIs(t, s.SetHash(0), ErrInvalidHashSize)
	assert.Equal(t, 2, s.Table().Megabytes())

	require.NoError(t, s.SetThreads(2))
	assert.Equal(t, 2, s.Threads())
	assert.ErrorIs(t, s.SetThreads(-1), ErrInvalidThreads)
}

func TestBench(t *testing.T) {
	s := newTestSession(t, 4)
	cfg := BenchConfig{
		Searches:       3,
		NodesPerWorker: 5000,
		KeySpace:       2000,
		Seed:           42,
	}

	res, err := s.Bench(context.Background(), cfg)
	require.NoError(t, err)

	want := uint64(cfg.Searches * 4 * cfg.NodesPerWorker)
	assert.Equal(t, want, res.Probes)
	assert.Equal(t, want, res.Stores)
	assert.Greater(t, res.Hits, uint64(0), "a small key space must produce hits")
	assert.LessOrEqual(t, res.Hits, res.Probes)
	assert.Equal(t, 4, res.Threads)
	assert.Equal(t, uint8(cfg.Searches), s.Table().Epoch())
	assert.Greater(t, res.HitRate(), 0.0)
}

func TestBenchAcrossEpochWrap(t *testing.T) {
	s := newTestSession(t, 2)
	cfg := BenchConfig{Searches: 70, NodesPerWorker: 200, KeySpace: 500, Seed: 3}

	_, err := s.Bench(context.Background(), cfg)
	require.NoError(t, err)
	// 63 increments reach the top, the 64th wraps to 1, six more follow.
	assert.Equal(t, uint8(7), s.Table().Epoch())
}

func TestBenchInvalidConfig(t *testing.T) {
	s := newTestSession(t, 1)
	_, err := s.Bench(context.Background(), BenchConfig{})
	assert.Error(t, err)
}

func TestBenchCancelled(t *testing.T) {
	s := newTestSession(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Bench(ctx, DefaultBenchConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBenchPayload(t *testing.T) {
	for key := 0; key <= 0xFFFF; key++ {
		move, score := benchPayload(uint16(key))
		require.True(t, move.IsValid())
		require.Less(t, score, MateInMaxPly)
		require.Greater(t, score, MatedInMaxPly)

		e := TTEntry{Key: uint16(key), Move: NewPackedMove(move), Score: int16(score), Depth: 1, AgeFlag: NewAgeFlag(0, TTExact)}
		require.NoError(t, checkPayload(e, 17))
	}

	e := TTEntry{Key: 7, Move: NewPackedMove(board.NewMove(board.H1, board.H2)), Score: 999, AgeFlag: NewAgeFlag(0, TTLowerBound)}
	err := checkPayload(e, 0)
	assert.ErrorIs(t, err, ErrCorruptEntry)
	assert.ErrorContains(t, err, "lowerbound score 999")

	_, score := benchPayload(7)
	e = TTEntry{Key: 7, Move: NewPackedMove(board.NewMove(board.H1, board.H2)), Score: int16(score), AgeFlag: NewAgeFlag(0, TTExact)}
	err = checkPayload(e, 0)
	assert.ErrorIs(t, err, ErrCorruptEntry)
	assert.ErrorContains(t, err, "exact move h1h2")
}
