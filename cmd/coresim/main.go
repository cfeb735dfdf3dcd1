// Package main provides the entry point for coresim's warmup and
// checkpoint driver. It builds the configured system, optionally
// resumes from a checkpoint, runs synthetic warmup traces, and
// optionally saves a checkpoint of the warmed state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/coresim/mem"
	"github.com/sarchlab/coresim/timing/btb"
	"github.com/sarchlab/coresim/timing/cache"
	"github.com/sarchlab/coresim/timing/checkpoint"
	"github.com/sarchlab/coresim/timing/config"
	"github.com/sarchlab/coresim/timing/core"
	"github.com/sarchlab/coresim/workload"
)

var (
	configPath = flag.String("config", "", "Path to system configuration JSON file")
	loadPath   = flag.String("load", "", "Checkpoint file to restore before running")
	savePath   = flag.String("save", "", "Checkpoint file to write after running")
	skipWarmup = flag.Bool("no-warmup", false, "Skip the warmup traces")
	verbose    = flag.Bool("v", false, "Verbose output")
)

// system holds the live objects built from a SimConfig.
type system struct {
	memory *mem.Memory
	caches []*cache.Cache
	cores  []*core.Core
}

func (s *system) cacheViews() []checkpoint.Cache {
	views := make([]checkpoint.Cache, len(s.caches))
	for i, c := range s.caches {
		views[i] = c
	}
	return views
}

func (s *system) coreViews() []checkpoint.Core {
	views := make([]checkpoint.Core, len(s.cores))
	for i, c := range s.cores {
		views[i] = c
	}
	return views
}

// buildSystem instantiates cores and caches from the configuration.
func buildSystem(cfg *config.SimConfig) *system {
	s := &system{memory: mem.NewMemory()}
	backing := cache.NewMemoryBacking(s.memory)

	btbConfig := btb.Config{
		DirectSets:       cfg.BTBDirectSets,
		DirectWays:       cfg.BTBDirectWays,
		IndirectSize:     cfg.BTBIndirectSize,
		HistoryLength:    cfg.BTBHistoryLength,
		ReturnStackDepth: cfg.BTBReturnStackDepth,
		CallSizeTrackers: cfg.BTBCallSizeTrackers,
	}

	for i := 0; i < cfg.Cores; i++ {
		l1i := cache.New(fmt.Sprintf("cpu%d_L1I", i), cache.Config{
			Size:          cfg.L1ISizeKB * 1024,
			Associativity: cfg.L1IAssociativity,
			BlockSize:     cfg.BlockSize,
			HitLatency:    1,
			MissLatency:   12,
		}, backing)

		l1d := cache.New(fmt.Sprintf("cpu%d_L1D", i), cache.Config{
			Size:          cfg.L1DSizeKB * 1024,
			Associativity: cfg.L1DAssociativity,
			BlockSize:     cfg.BlockSize,
			HitLatency:    4,
			MissLatency:   12,
		}, backing)

		s.caches = append(s.caches, l1i, l1d)
		s.cores = append(s.cores, core.NewCore(i, btb.New(btbConfig), l1i, l1d))
	}

	return s
}

func main() {
	flag.Parse()

	cfg := config.DefaultSimConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	s := buildSystem(cfg)

	if *loadPath != "" {
		if err := checkpoint.Load(s.cacheViews(), s.coreViews(), *loadPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading checkpoint: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Restored checkpoint: %s\n", *loadPath)
		}
	}

	if !*skipWarmup {
		runWarmup(s, cfg)
	}

	if *savePath != "" {
		if err := checkpoint.Save(s.cacheViews(), s.coreViews(), *savePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving checkpoint: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("Saved checkpoint: %s\n", *savePath)
		}
	}
}

// runWarmup drives every core through the standard warmup traces.
func runWarmup(s *system, cfg *config.SimConfig) {
	for _, c := range s.cores {
		traces := workload.GetWarmupTraces(cfg.WorkloadSeed + int64(c.ID()))

		var total core.Stats
		for _, tr := range traces {
			stats := c.Run(tr)
			total.Events += stats.Events
			total.Branches += stats.Branches
			total.TargetHits += stats.TargetHits
			total.Cycles += stats.Cycles

			if *verbose {
				fmt.Printf("cpu%d %-18s events=%d branches=%d target_hits=%d cycles=%d\n",
					c.ID(), tr.Name, stats.Events, stats.Branches,
					stats.TargetHits, stats.Cycles)
			}
		}

		if *verbose {
			btbStats := c.Predictor().(*btb.BTB).Stats()
			fmt.Printf("cpu%d total: events=%d branches=%d btb_hit_rate=%.1f%%\n",
				c.ID(), total.Events, total.Branches, hitRate(btbStats))
			printCacheStats(c)
		}
	}
}

func hitRate(s btb.Stats) float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Predictions) * 100
}

func printCacheStats(c *core.Core) {
	for _, l1 := range []*cache.Cache{c.L1I, c.L1D} {
		stats := l1.Stats()
		fmt.Printf("  %s: reads=%d writes=%d hits=%d misses=%d\n",
			l1.Name(), stats.Reads, stats.Writes, stats.Hits, stats.Misses)
	}
}
