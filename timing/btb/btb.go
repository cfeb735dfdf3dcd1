package btb

// Stats holds branch target prediction statistics.
type Stats struct {
	// Predictions is the total number of target lookups.
	Predictions uint64
	// Hits is the number of lookups that produced a target.
	Hits uint64
	// Misses is the number of lookups with no cached entry.
	Misses uint64
}

// Prediction is the result of a BTB lookup.
type Prediction struct {
	// Target is the predicted target address.
	Target uint64
	// Taken indicates whether the branch is predicted taken. Conditional
	// branches report false here; direction prediction is a separate
	// concern and the BTB only supplies the target.
	Taken bool
	// Known indicates whether the BTB had an entry for the address.
	Known bool
}

// BTB is a composite branch target buffer: a set-associative direct
// predictor for ordinary branches, a history-hashed indirect predictor,
// and a return-address stack with call-size calibration.
type BTB struct {
	config   Config
	direct   *directPredictor
	indirect *indirectPredictor
	ras      *returnStack

	stats Stats
}

// New creates a BTB with the given geometry. Zero config fields take
// their defaults.
func New(config Config) *BTB {
	config = config.withDefaults()

	return &BTB{
		config:   config,
		direct:   newDirectPredictor(config.DirectSets, config.DirectWays),
		indirect: newIndirectPredictor(config.IndirectSize, config.HistoryLength),
		ras:      newReturnStack(config.ReturnStackDepth, config.CallSizeTrackers),
	}
}

// Config returns the BTB geometry.
func (b *BTB) Config() Config {
	return b.config
}

// Stats returns prediction statistics.
func (b *BTB) Stats() Stats {
	return b.stats
}

// Predict looks up the target for the branch at ip.
func (b *BTB) Predict(ip uint64) Prediction {
	b.stats.Predictions++

	entry, hit := b.direct.checkHit(ip)
	if !hit {
		b.stats.Misses++
		return Prediction{}
	}
	b.stats.Hits++

	switch entry.class {
	case ClassReturn:
		target, known := b.ras.prediction()
		return Prediction{Target: target, Taken: known, Known: known}
	case ClassIndirect:
		target, known := b.indirect.predict(ip)
		return Prediction{Target: target, Taken: known, Known: known}
	default:
		return Prediction{
			Target: entry.target,
			Taken:  entry.class != ClassConditional,
			Known:  true,
		}
	}
}

// Update trains the BTB with an observed branch outcome.
func (b *BTB) Update(ip, target uint64, taken bool, bt BranchType) {
	if bt == BranchDirectCall || bt == BranchIndirectCall {
		b.ras.push(ip)
	}

	if bt == BranchIndirect || bt == BranchIndirectCall {
		b.indirect.updateTarget(ip, target)
	}

	if bt == BranchConditional {
		b.indirect.updateDirection(taken)
	}

	if bt == BranchReturn {
		b.ras.calibrate(target)
	}

	b.direct.update(ip, target, bt)
}

// Reset clears all learned state and statistics.
func (b *BTB) Reset() {
	b.direct.table.Clear()
	b.indirect.reset()
	b.ras.reset()
	b.stats = Stats{}
}

// CheckpointContents captures the complete learned state. It reads the
// live structures without mutating them and never fails; any learned
// value is valid to store.
func (b *BTB) CheckpointContents() *CheckpointState {
	state := &CheckpointState{
		DirectSets: b.config.DirectSets,
		DirectWays: b.config.DirectWays,

		IndirectTableSize: len(b.indirect.targets),
		IndirectTargets:   append([]uint64(nil), b.indirect.targets...),
		IndirectHistory:   b.indirect.history,

		ReturnStack: append([]uint64(nil), b.ras.stack...),

		CallSizeTrackerSize: len(b.ras.callSizes),
		CallSizeTrackers:    append([]int64(nil), b.ras.callSizes...),
	}

	for _, e := range b.direct.table.Extract() {
		state.DirectEntries = append(state.DirectEntries, DirectEntryState{
			Set:       e.Set,
			Way:       e.Way,
			LastUsed:  e.LastUsed,
			IPTag:     e.Payload.ipTag,
			Target:    e.Payload.target,
			ClassCode: uint8(e.Payload.class),
		})
	}

	return state
}

// RestoreCheckpoint replaces the live state with a captured one. It
// validates structural constants only; learned content values are
// accepted as-is. A zero geometry or an empty sequence in the checkpoint
// means that section was absent and the structure is reset instead.
func (b *BTB) RestoreCheckpoint(state *CheckpointState) error {
	if state.DirectSets != 0 && state.DirectSets != b.config.DirectSets {
		return &GeometryMismatchError{
			Dimension: "set",
			Want:      b.config.DirectSets,
			Got:       state.DirectSets,
		}
	}
	if state.DirectWays != 0 && state.DirectWays != b.config.DirectWays {
		return &GeometryMismatchError{
			Dimension: "way",
			Want:      b.config.DirectWays,
			Got:       state.DirectWays,
		}
	}

	entries := make([]Entry[directEntry], 0, len(state.DirectEntries))
	for _, e := range state.DirectEntries {
		entries = append(entries, Entry[directEntry]{
			Set:      e.Set,
			Way:      e.Way,
			LastUsed: e.LastUsed,
			Payload: directEntry{
				ipTag:  e.IPTag,
				target: e.Target,
				class:  classFromCode(e.ClassCode),
			},
		})
	}
	b.direct.table.Restore(entries)

	if len(state.IndirectTargets) != 0 &&
		len(state.IndirectTargets) != len(b.indirect.targets) {
		return &SizeMismatchError{
			Structure: "indirect table",
			Want:      len(b.indirect.targets),
			Got:       len(state.IndirectTargets),
		}
	}
	for i := range b.indirect.targets {
		b.indirect.targets[i] = 0
	}
	copy(b.indirect.targets, state.IndirectTargets)
	b.indirect.setHistory(state.IndirectHistory)

	b.ras.stack = b.ras.stack[:0]
	for _, addr := range state.ReturnStack {
		b.ras.push(addr)
	}

	if len(state.CallSizeTrackers) != 0 &&
		len(state.CallSizeTrackers) != len(b.ras.callSizes) {
		return &SizeMismatchError{
			Structure: "call size tracker",
			Want:      len(b.ras.callSizes),
			Got:       len(state.CallSizeTrackers),
		}
	}
	if len(state.CallSizeTrackers) == 0 {
		b.ras.resetCallSizes()
	} else {
		copy(b.ras.callSizes, state.CallSizeTrackers)
	}

	return nil
}
