package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Hash and thread limits, matching the UCI options the engine advertises.
const (
	DefaultHashMB = 64
	MinHashMB     = 1
	MaxHashMB     = 4096
	MaxThreads    = 512
)

var (
	ErrInvalidHashSize = errors.New("engine: invalid hash size")
	ErrInvalidThreads  = errors.New("engine: invalid thread count")
)

// Config holds the session settings.
type Config struct {
	HashMB  int // Transposition table size in MB
	Threads int // Number of parallel search workers (Lazy SMP)
}

// DefaultConfig returns a 64MB table with one worker per CPU.
func DefaultConfig() Config {
	return Config{
		HashMB:  DefaultHashMB,
		Threads: runtime.NumCPU(),
	}
}

func (c Config) validate() error {
	if err := validateHash(c.HashMB); err != nil {
		return err
	}
	return validateThreads(c.Threads)
}

func validateHash(mb int) error {
	if mb < MinHashMB || mb > MaxHashMB {
		return fmt.Errorf("%w: %d MB (want %d-%d)", ErrInvalidHashSize, mb, MinHashMB, MaxHashMB)
	}
	return nil
}

func validateThreads(n int) error {
	if n < 1 || n > MaxThreads {
		return fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidThreads, n, MaxThreads)
	}
	return nil
}

// WorkerFunc is the body of one search worker. All workers of a search share
// the same table.
type WorkerFunc func(ctx context.Context, id int, tt *TranspositionTable) error

// Session owns the transposition table for the lifetime of an engine and
// runs searches against it. Table maintenance (new game, resize, aging) is
// serialized with searches so it never overlaps running workers.
type Session struct {
	mu      sync.Mutex
	tt      *TranspositionTable
	threads int
}

// NewSession validates cfg and allocates the transposition table.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Session{
		tt:      NewTranspositionTable(cfg.HashMB),
		threads: cfg.Threads,
	}
	s.logTable()
	return s, nil
}

func (s *Session) logTable() {
	log.Printf("transposition table: %s, %s slots, prefetch=%v, hugepages=%v",
		humanize.IBytes(uint64(s.tt.Len())*ttEntryBytes), humanize.Comma(int64(s.tt.Len())), hasPrefetch, s.tt.HugePages())
}

// Search starts a new table generation and runs one worker per thread until
// all return. The first worker error cancels ctx for the others and is
// returned. NewGame and SetHash block until Search has finished.
func (s *Session) Search(ctx context.Context, fn WorkerFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tt.Age()

	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < s.threads; id++ {
		g.Go(func() error {
			return fn(ctx, id, s.tt)
		})
	}
	return g.Wait()
}

// NewGame clears the table.
func (s *Session) NewGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tt.Reset()
}

// SetHash resizes the table. The previous contents are discarded.
func (s *Session) SetHash(mb int) error {
	if err := validateHash(mb); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mb == s.tt.Megabytes() {
		return nil
	}
	s.tt.Resize(mb)
	s.logTable()
	return nil
}

// SetThreads sets the number of workers used by the next search.
func (s *Session) SetThreads(n int) error {
	if err := validateThreads(n); err != nil {
		return err
	}

	s.mu.Lock()
	s.threads = n
	s.mu.Unlock()
	return nil
}

// Threads returns the number of workers per search.
func (s *Session) Threads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads
}

// Table returns the shared transposition table. Workers receive the table as
// an argument and must not call Table, HashFull or Threads while a search holds
// the session.
func (s *Session) Table() *TranspositionTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tt
}

// HashFull returns the table occupancy in permille.
func (s *Session) HashFull() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tt.HashFull()
}
