// Package core provides the per-core model: a numeric id, a branch
// target predictor, and private L1 caches, driven by warmup traces.
package core

import (
	"github.com/sarchlab/coresim/timing/btb"
	"github.com/sarchlab/coresim/timing/cache"
	"github.com/sarchlab/coresim/workload"
)

// BranchPredictor is the minimal predictor surface a core drives.
type BranchPredictor interface {
	Predict(ip uint64) btb.Prediction
	Update(ip, target uint64, taken bool, bt btb.BranchType)
}

// CheckpointablePredictor is implemented by predictor modules whose
// learned state can be captured and restored. Modules without it are
// invisible to the checkpoint codec and simply cold-start.
type CheckpointablePredictor interface {
	BranchPredictor
	CheckpointContents() *btb.CheckpointState
	RestoreCheckpoint(state *btb.CheckpointState) error
}

// Stats holds per-core warmup statistics.
type Stats struct {
	// Events is the number of trace events consumed.
	Events uint64
	// Branches is the number of branch events.
	Branches uint64
	// TargetHits is the number of branch events whose target the
	// predictor already knew.
	TargetHits uint64
	// Cycles is the accumulated access latency in cycles.
	Cycles uint64
}

// Core is one simulated CPU core.
type Core struct {
	id        int
	predictor BranchPredictor

	// L1I and L1D are the core's private caches.
	L1I *cache.Cache
	L1D *cache.Cache
}

// NewCore creates a core with the given id, predictor, and caches.
// predictor may be any BranchPredictor; only predictors that also
// implement CheckpointablePredictor participate in checkpoints.
func NewCore(id int, predictor BranchPredictor, l1i, l1d *cache.Cache) *Core {
	return &Core{
		id:        id,
		predictor: predictor,
		L1I:       l1i,
		L1D:       l1d,
	}
}

// ID returns the core's numeric id.
func (c *Core) ID() int {
	return c.id
}

// Predictor returns the installed branch predictor.
func (c *Core) Predictor() BranchPredictor {
	return c.predictor
}

// CaptureBTBState captures the predictor's learned state. The second
// return value is false when the installed predictor module does not
// support checkpointing.
func (c *Core) CaptureBTBState() (*btb.CheckpointState, bool) {
	cp, ok := c.predictor.(CheckpointablePredictor)
	if !ok {
		return nil, false
	}
	return cp.CheckpointContents(), true
}

// RestoreBTBState pushes a captured state into the predictor. Cores
// with a non-checkpointable predictor ignore the state and stay cold.
func (c *Core) RestoreBTBState(state *btb.CheckpointState) error {
	cp, ok := c.predictor.(CheckpointablePredictor)
	if !ok {
		return nil
	}
	return cp.RestoreCheckpoint(state)
}

// Run drives the core through a trace, training the predictor and
// touching the caches, and returns the accumulated statistics.
func (c *Core) Run(trace workload.Trace) Stats {
	var stats Stats

	for _, e := range trace.Events {
		stats.Events++

		if c.L1I != nil {
			fetch := c.L1I.Read(e.IP, 4)
			stats.Cycles += fetch.Latency
		}

		switch e.Kind {
		case workload.EventBranch:
			stats.Branches++

			pred := c.predictor.Predict(e.IP)
			if pred.Known && pred.Target == e.Target {
				stats.TargetHits++
			}
			c.predictor.Update(e.IP, e.Target, e.Taken, e.Type)

		case workload.EventLoad:
			if c.L1D != nil {
				result := c.L1D.Read(e.Addr, e.Size)
				stats.Cycles += result.Latency
			}

		case workload.EventStore:
			if c.L1D != nil {
				result := c.L1D.Write(e.Addr, e.Size, e.Data)
				stats.Cycles += result.Latency
			}
		}
	}

	return stats
}
