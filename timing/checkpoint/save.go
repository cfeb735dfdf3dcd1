package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"sort"
)

// Save writes the checkpoint state of the given caches and cores to
// path. Caches are written in the order given; cores are written in
// ascending id order. Cores whose predictor module does not support
// checkpointing are skipped entirely.
func Save(caches []Cache, cores []Core, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to open %q for writing checkpoint: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	for _, c := range caches {
		fmt.Fprintf(w, "Cache: %s\n", c.Name())
		for _, entry := range c.CheckpointEntries() {
			fmt.Fprintf(w, "  Set: %d Way: %d Address: 0x%x\n",
				entry.Set, entry.Way, entry.Address)
		}
		fmt.Fprintf(w, "EndCache\n")
	}

	sorted := append([]Core(nil), cores...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	for _, c := range sorted {
		state, ok := c.CaptureBTBState()
		if !ok {
			continue
		}

		fmt.Fprintf(w, "BTB: CPU %d\n", c.ID())
		fmt.Fprintf(w, "  DirectGeometry: Sets %d Ways %d\n",
			state.DirectSets, state.DirectWays)
		fmt.Fprintf(w, "  IndirectSize: %d\n", state.IndirectTableSize)
		fmt.Fprintf(w, "  IndirectHistory: %d\n", state.IndirectHistory)
		fmt.Fprintf(w, "  CallSizeTrackerSize: %d\n", state.CallSizeTrackerSize)

		for _, e := range state.DirectEntries {
			fmt.Fprintf(w, "  DirectEntry: Set %d Way %d LastUsed %d IP: 0x%x Target: 0x%x Type: %d\n",
				e.Set, e.Way, e.LastUsed, e.IPTag, e.Target, e.ClassCode)
		}

		for index, target := range state.IndirectTargets {
			fmt.Fprintf(w, "  IndirectEntry: Index %d Target: 0x%x\n", index, target)
		}

		for _, addr := range state.ReturnStack {
			fmt.Fprintf(w, "  ReturnStackEntry: 0x%x\n", addr)
		}

		for index, size := range state.CallSizeTrackers {
			fmt.Fprintf(w, "  CallSizeTracker: Index %d Size %d\n", index, size)
		}

		fmt.Fprintf(w, "EndBTB\n")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("unable to write checkpoint to %q: %w", path, err)
	}

	return nil
}
