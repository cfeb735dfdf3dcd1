package btb

// DirectEntryState is one direct-predictor slot in a checkpoint.
type DirectEntryState struct {
	Set      int
	Way      int
	LastUsed uint64
	IPTag    uint64
	Target   uint64
	// ClassCode is the numeric branch-class code as stored on disk.
	ClassCode uint8
}

// CheckpointState is the complete captured state of one core's BTB. It
// has no behavior of its own; CheckpointContents produces it and
// RestoreCheckpoint consumes it.
type CheckpointState struct {
	DirectSets    int
	DirectWays    int
	DirectEntries []DirectEntryState

	IndirectTableSize int
	IndirectTargets   []uint64
	IndirectHistory   uint64

	// ReturnStack holds addresses oldest first.
	ReturnStack []uint64

	CallSizeTrackerSize int
	CallSizeTrackers    []int64
}
