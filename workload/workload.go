// Package workload provides deterministic synthetic instruction traces
// used to warm up branch predictors and caches before a checkpoint is
// taken.
package workload

import (
	"math/rand"

	"github.com/sarchlab/coresim/timing/btb"
)

// EventKind distinguishes trace events.
type EventKind uint8

const (
	// EventBranch is a control-flow event seen by the branch predictor.
	EventBranch EventKind = iota
	// EventLoad is a data-cache read.
	EventLoad
	// EventStore is a data-cache write.
	EventStore
)

// Event is one step of a warmup trace.
type Event struct {
	Kind EventKind

	// IP is the instruction address. Fetch goes through the L1I cache
	// for every event.
	IP uint64

	// Branch fields.
	Target uint64
	Taken  bool
	Type   btb.BranchType

	// Memory fields.
	Addr uint64
	Size int
	Data uint64
}

// Trace is a named sequence of events.
type Trace struct {
	Name        string
	Description string
	Events      []Event
}

// GetWarmupTraces returns the standard warmup trace set. Each trace
// targets one of the structures being checkpointed.
func GetWarmupTraces(seed int64) []Trace {
	return []Trace{
		LoopTrace(64, 100),
		CallReturnTrace(32),
		IndirectDispatchTrace(seed, 256),
		MemoryStrideTrace(0x10000, 64, 128),
		MixedTrace(seed, 512),
	}
}

// LoopTrace models nested counted loops: a conditional back-edge taken
// (iterations-1) times per loop, over loopCount distinct loop sites.
// Trains the direct predictor's conditional entries and the history
// register.
func LoopTrace(loopCount, iterations int) Trace {
	var events []Event

	for l := 0; l < loopCount; l++ {
		branchIP := 0x40_0000 + uint64(l)*0x40
		bodyIP := branchIP - 0x20

		for i := 0; i < iterations; i++ {
			events = append(events, Event{
				Kind:   EventBranch,
				IP:     branchIP,
				Target: bodyIP,
				Taken:  i < iterations-1,
				Type:   btb.BranchConditional,
			})
		}
	}

	return Trace{
		Name:        "loops",
		Description: "counted loops with conditional back-edges",
		Events:      events,
	}
}

// CallReturnTrace models a chain of calls followed by matching returns.
// Trains the return-address stack and call-size trackers.
func CallReturnTrace(depth int) Trace {
	var events []Event

	callIP := func(level int) uint64 { return 0x50_0000 + uint64(level)*0x100 }
	funcIP := func(level int) uint64 { return 0x60_0000 + uint64(level)*0x400 }

	for level := 0; level < depth; level++ {
		events = append(events, Event{
			Kind:   EventBranch,
			IP:     callIP(level),
			Target: funcIP(level),
			Taken:  true,
			Type:   btb.BranchDirectCall,
		})
	}

	for level := depth - 1; level >= 0; level-- {
		events = append(events, Event{
			Kind:   EventBranch,
			IP:     funcIP(level) + 0x20,
			Target: callIP(level) + 4,
			Taken:  true,
			Type:   btb.BranchReturn,
		})
	}

	return Trace{
		Name:        "call_return",
		Description: "call chain with matching returns",
		Events:      events,
	}
}

// IndirectDispatchTrace models a dispatch loop jumping through a small
// handler table. Trains the indirect predictor under a varying history.
func IndirectDispatchTrace(seed int64, count int) Trace {
	rng := rand.New(rand.NewSource(seed))
	var events []Event

	dispatchIP := uint64(0x70_0000)
	handler := func(i int) uint64 { return 0x71_0000 + uint64(i)*0x200 }

	for i := 0; i < count; i++ {
		// A data-dependent conditional shifts the history register.
		taken := rng.Intn(2) == 0
		events = append(events, Event{
			Kind:   EventBranch,
			IP:     dispatchIP - 0x10,
			Target: dispatchIP,
			Taken:  taken,
			Type:   btb.BranchConditional,
		})

		events = append(events, Event{
			Kind:   EventBranch,
			IP:     dispatchIP,
			Target: handler(rng.Intn(8)),
			Taken:  true,
			Type:   btb.BranchIndirect,
		})
	}

	return Trace{
		Name:        "indirect_dispatch",
		Description: "indirect jumps through a handler table",
		Events:      events,
	}
}

// MemoryStrideTrace models strided loads with periodic stores. Warms
// the data cache with a predictable resident set.
func MemoryStrideTrace(base uint64, stride, count int) Trace {
	var events []Event

	for i := 0; i < count; i++ {
		addr := base + uint64(i*stride)
		events = append(events, Event{
			Kind: EventLoad,
			IP:   0x80_0000 + uint64(i)*4,
			Addr: addr,
			Size: 8,
		})

		if i%4 == 0 {
			events = append(events, Event{
				Kind: EventStore,
				IP:   0x80_0000 + uint64(i)*4 + 4,
				Addr: addr,
				Size: 8,
				Data: uint64(i),
			})
		}
	}

	return Trace{
		Name:        "memory_stride",
		Description: "strided loads with periodic stores",
		Events:      events,
	}
}

// MixedTrace interleaves branches and memory accesses pseudo-randomly.
func MixedTrace(seed int64, count int) Trace {
	rng := rand.New(rand.NewSource(seed + 1))
	var events []Event

	for i := 0; i < count; i++ {
		ip := 0x90_0000 + uint64(rng.Intn(64))*4

		switch rng.Intn(4) {
		case 0:
			events = append(events, Event{
				Kind:   EventBranch,
				IP:     ip,
				Target: ip + uint64(rng.Intn(16)+1)*4,
				Taken:  rng.Intn(3) > 0,
				Type:   btb.BranchConditional,
			})
		case 1:
			events = append(events, Event{
				Kind:   EventBranch,
				IP:     ip,
				Target: 0x91_0000 + uint64(rng.Intn(4))*0x100,
				Taken:  true,
				Type:   btb.BranchDirectJump,
			})
		case 2:
			events = append(events, Event{
				Kind: EventLoad,
				IP:   ip,
				Addr: 0xA0_0000 + uint64(rng.Intn(512))*8,
				Size: 8,
			})
		default:
			events = append(events, Event{
				Kind: EventStore,
				IP:   ip,
				Addr: 0xA0_0000 + uint64(rng.Intn(512))*8,
				Size: 8,
				Data: uint64(i),
			})
		}
	}

	return Trace{
		Name:        "mixed",
		Description: "interleaved branches and memory accesses",
		Events:      events,
	}
}
