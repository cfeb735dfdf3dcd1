// Package checkpoint persists the learned state of caches and branch
// predictors to a line-oriented text file, so a warmed-up simulation
// can be resumed without repeating its warmup phase.
//
// The file holds a block per cache ("Cache: <name>" ... "EndCache")
// followed by a block per core ("BTB: CPU <id>" ... "EndBTB"). Files
// written before BTB checkpointing existed contain only cache blocks
// and still load; the cores then cold-start.
package checkpoint

import (
	"fmt"

	"github.com/sarchlab/coresim/timing/btb"
	"github.com/sarchlab/coresim/timing/cache"
)

// Cache is the surface the codec needs from a cache.
type Cache interface {
	// Name uniquely identifies the cache in checkpoint files.
	Name() string
	// CheckpointEntries lists every valid resident block.
	CheckpointEntries() []cache.CheckpointEntry
	// RestoreCheckpoint replaces the resident-block set. An empty
	// entry list cold-starts the cache.
	RestoreCheckpoint(entries []cache.CheckpointEntry) error
}

// Core is the surface the codec needs from a CPU core.
type Core interface {
	// ID is the core's numeric id, unique within the system.
	ID() int
	// CaptureBTBState captures the predictor's learned state; ok is
	// false when the installed predictor does not support
	// checkpointing, in which case no section is written.
	CaptureBTBState() (state *btb.CheckpointState, ok bool)
	// RestoreBTBState pushes a captured state into the predictor.
	RestoreBTBState(state *btb.CheckpointState) error
}

// ParseError reports a malformed checkpoint file.
type ParseError struct {
	// Line is the 1-based line number of the offending line.
	Line int
	// Message describes the expected and found tokens.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("checkpoint parse error on line %d: %s", e.Line, e.Message)
}
