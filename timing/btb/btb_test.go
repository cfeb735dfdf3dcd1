package btb_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coresim/timing/btb"
)

// testConfig keeps structures small so overflow paths are reachable.
func testConfig() btb.Config {
	return btb.Config{
		DirectSets:       16,
		DirectWays:       2,
		IndirectSize:     64,
		HistoryLength:    4,
		ReturnStackDepth: 4,
		CallSizeTrackers: 32,
	}
}

var _ = Describe("BTB", func() {
	var b *btb.BTB

	BeforeEach(func() {
		b = btb.New(testConfig())
	})

	Describe("Prediction", func() {
		It("should not know untrained branches", func() {
			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeFalse())

			stats := b.Stats()
			Expect(stats.Predictions).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
		})

		It("should predict direct jump targets", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchDirectJump)

			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeTrue())
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.Target).To(Equal(uint64(0x2000)))
		})

		It("should supply targets for conditional branches without a direction", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchConditional)

			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeTrue())
			Expect(pred.Taken).To(BeFalse())
			Expect(pred.Target).To(Equal(uint64(0x2000)))
		})

		It("should predict return targets from the stack", func() {
			// Call at 0x1000, return instruction at 0x3000 returns to
			// 0x1004.
			b.Update(0x1000, 0x3000, true, btb.BranchDirectCall)
			b.Update(0x3000, 0x1004, true, btb.BranchReturn)

			// Second time around the same call/return pair.
			b.Update(0x1000, 0x3000, true, btb.BranchDirectCall)
			pred := b.Predict(0x3000)
			Expect(pred.Known).To(BeTrue())
			Expect(pred.Target).To(Equal(uint64(0x1004)))
		})

		It("should learn calibrated call sizes", func() {
			// A call whose return lands 8 bytes past the call site.
			b.Update(0x1000, 0x3000, true, btb.BranchDirectCall)
			b.Update(0x3000, 0x1008, true, btb.BranchReturn)

			b.Update(0x1000, 0x3000, true, btb.BranchDirectCall)
			pred := b.Predict(0x3000)
			Expect(pred.Target).To(Equal(uint64(0x1008)))
		})

		It("should predict indirect targets", func() {
			b.Update(0x1000, 0x5000, true, btb.BranchIndirect)

			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeTrue())
			Expect(pred.Target).To(Equal(uint64(0x5000)))
		})

		It("should separate indirect targets by conditional history", func() {
			b.Update(0x1000, 0x5000, true, btb.BranchIndirect)

			// Shifting the history changes the table index.
			b.Update(0x2000, 0x2004, true, btb.BranchConditional)

			b.Update(0x1000, 0x6000, true, btb.BranchIndirect)
			pred := b.Predict(0x1000)
			Expect(pred.Target).To(Equal(uint64(0x6000)))
		})
	})

	Describe("Checkpoint capture", func() {
		It("should record the configured geometry", func() {
			state := b.CheckpointContents()
			Expect(state.DirectSets).To(Equal(16))
			Expect(state.DirectWays).To(Equal(2))
			Expect(state.IndirectTableSize).To(Equal(64))
			Expect(state.CallSizeTrackerSize).To(Equal(32))
		})

		It("should capture without mutating live state", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchDirectJump)

			first := b.CheckpointContents()
			second := b.CheckpointContents()
			Expect(second).To(Equal(first))

			pred := b.Predict(0x1000)
			Expect(pred.Target).To(Equal(uint64(0x2000)))
		})

		It("should capture the return stack oldest first", func() {
			b.Update(0x1000, 0x8000, true, btb.BranchDirectCall)
			b.Update(0x2000, 0x8000, true, btb.BranchDirectCall)

			state := b.CheckpointContents()
			Expect(state.ReturnStack).To(Equal([]uint64{0x1000, 0x2000}))
		})
	})

	Describe("Checkpoint restore", func() {
		It("should round-trip learned state into a fresh BTB", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchDirectJump)
			b.Update(0x1010, 0x3000, false, btb.BranchConditional)
			b.Update(0x1020, 0x5000, true, btb.BranchIndirect)
			b.Update(0x1030, 0x6000, true, btb.BranchDirectCall)
			b.Update(0x2000, 0x2004, true, btb.BranchConditional)

			state := b.CheckpointContents()

			fresh := btb.New(testConfig())
			Expect(fresh.RestoreCheckpoint(state)).To(Succeed())

			Expect(fresh.CheckpointContents()).To(Equal(b.CheckpointContents()))

			pred := fresh.Predict(0x1000)
			Expect(pred.Known).To(BeTrue())
			Expect(pred.Target).To(Equal(uint64(0x2000)))
		})

		It("should reject a set count mismatch", func() {
			state := b.CheckpointContents()
			state.DirectSets = 32

			err := b.RestoreCheckpoint(state)
			var mismatch *btb.GeometryMismatchError
			Expect(err).To(HaveOccurred())
			Expect(errorsAs(err, &mismatch)).To(BeTrue())
			Expect(mismatch.Want).To(Equal(16))
			Expect(mismatch.Got).To(Equal(32))
		})

		It("should not touch the direct table on geometry mismatch", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchDirectJump)

			bad := &btb.CheckpointState{DirectWays: 99}
			Expect(b.RestoreCheckpoint(bad)).To(HaveOccurred())

			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeTrue())
		})

		It("should accept zero geometry as a cold section", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchDirectJump)

			Expect(b.RestoreCheckpoint(&btb.CheckpointState{})).To(Succeed())

			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeFalse())
		})

		It("should reject an indirect table size mismatch", func() {
			state := &btb.CheckpointState{
				IndirectTargets: make([]uint64, 16),
			}

			err := b.RestoreCheckpoint(state)
			var mismatch *btb.SizeMismatchError
			Expect(errorsAs(err, &mismatch)).To(BeTrue())
			Expect(mismatch.Want).To(Equal(64))
			Expect(mismatch.Got).To(Equal(16))
		})

		It("should reject a call size tracker size mismatch", func() {
			state := &btb.CheckpointState{
				CallSizeTrackers: make([]int64, 8),
			}

			err := b.RestoreCheckpoint(state)
			var mismatch *btb.SizeMismatchError
			Expect(errorsAs(err, &mismatch)).To(BeTrue())
			Expect(mismatch.Structure).To(Equal("call size tracker"))
		})

		It("should drop the oldest return addresses past capacity", func() {
			state := &btb.CheckpointState{
				ReturnStack: []uint64{0x1, 0x2, 0x3, 0x4, 0x5, 0x6},
			}
			Expect(b.RestoreCheckpoint(state)).To(Succeed())

			// Depth is 4: only 0x3..0x6 survive, 0x6 on top.
			Expect(b.CheckpointContents().ReturnStack).
				To(Equal([]uint64{0x3, 0x4, 0x5, 0x6}))
		})

		It("should refill default call sizes when trackers are absent", func() {
			b.Update(0x1000, 0x3000, true, btb.BranchDirectCall)
			b.Update(0x3000, 0x1010, true, btb.BranchReturn)

			Expect(b.RestoreCheckpoint(&btb.CheckpointState{})).To(Succeed())

			state := b.CheckpointContents()
			for _, size := range state.CallSizeTrackers {
				Expect(size).To(Equal(int64(4)))
			}
		})

		It("should mask the restored history to the register width", func() {
			state := &btb.CheckpointState{IndirectHistory: 0xFFFF}
			Expect(b.RestoreCheckpoint(state)).To(Succeed())

			// HistoryLength is 4: only the low nibble survives.
			Expect(b.CheckpointContents().IndirectHistory).To(Equal(uint64(0xF)))
		})

		It("should map unknown branch class codes to always-taken", func() {
			state := &btb.CheckpointState{
				DirectEntries: []btb.DirectEntryState{{
					Set: 0, Way: 0, IPTag: 0x1000, Target: 0x2000, ClassCode: 200,
				}},
			}
			Expect(b.RestoreCheckpoint(state)).To(Succeed())

			pred := b.Predict(0x1000)
			Expect(pred.Known).To(BeTrue())
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.Target).To(Equal(uint64(0x2000)))
		})

		It("should be idempotent", func() {
			b.Update(0x1000, 0x2000, true, btb.BranchDirectJump)
			b.Update(0x1030, 0x6000, true, btb.BranchDirectCall)
			state := b.CheckpointContents()

			fresh := btb.New(testConfig())
			Expect(fresh.RestoreCheckpoint(state)).To(Succeed())
			once := fresh.CheckpointContents()

			Expect(fresh.RestoreCheckpoint(state)).To(Succeed())
			Expect(fresh.CheckpointContents()).To(Equal(once))
		})
	})
})
