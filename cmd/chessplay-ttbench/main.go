package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/dustin/go-humanize"
	"github.com/sugawarayuuta/sonnet"

	"github.com/hailam/chesstt/internal/engine"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", engine.DefaultConfig().HashMB, "transposition table size in MB")
	threads    = flag.Int("threads", engine.DefaultConfig().Threads, "number of search workers")
	searches   = flag.Int("searches", engine.DefaultBenchConfig().Searches, "number of searches (table generations)")
	nodes      = flag.Int("nodes", engine.DefaultBenchConfig().NodesPerWorker, "probe/store pairs per worker per search")
	keys       = flag.Uint64("keys", engine.DefaultBenchConfig().KeySpace, "number of distinct positions")
	seed       = flag.Uint64("seed", engine.DefaultBenchConfig().Seed, "key generator seed")
	jsonOut    = flag.Bool("json", false, "print the report as JSON")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	if err := run(); err != nil {
		log.Printf("bench failed: %v", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run() error {
	session, err := engine.NewSession(engine.Config{HashMB: *hashMB, Threads: *threads})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := engine.BenchConfig{
		Searches:       *searches,
		NodesPerWorker: *nodes,
		KeySpace:       *keys,
		Seed:           *seed,
	}
	res, err := session.Bench(ctx, cfg)
	if err != nil {
		return err
	}

	if *jsonOut {
		data, err := sonnet.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("searches  %d x %d threads\n", res.Searches, res.Threads)
	fmt.Printf("probes    %s\n", humanize.Comma(int64(res.Probes)))
	fmt.Printf("hits      %s (%.2f%%)\n", humanize.Comma(int64(res.Hits)), res.HitRate())
	fmt.Printf("stores    %s\n", humanize.Comma(int64(res.Stores)))
	fmt.Printf("time      %v\n", res.Elapsed)
	fmt.Printf("nps       %s\n", humanize.Comma(int64(res.NodesPerSecond())))
	fmt.Printf("hashfull  %d\n", res.HashFull)
	return nil
}
