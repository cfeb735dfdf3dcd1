package core_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coresim/mem"
	"github.com/sarchlab/coresim/timing/btb"
	"github.com/sarchlab/coresim/timing/cache"
	"github.com/sarchlab/coresim/timing/core"
	"github.com/sarchlab/coresim/workload"
)

func TestCore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Core Suite")
}

// staticPredictor is a predictor module without checkpoint support.
type staticPredictor struct{}

func (staticPredictor) Predict(ip uint64) btb.Prediction { return btb.Prediction{} }
func (staticPredictor) Update(ip, target uint64, taken bool, bt btb.BranchType) {
}

var _ = Describe("Core", func() {
	var (
		memory *mem.Memory
		c      *core.Core
	)

	newCaches := func() (*cache.Cache, *cache.Cache) {
		backing := cache.NewMemoryBacking(memory)
		config := cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		}
		return cache.New("cpu0_L1I", config, backing),
			cache.New("cpu0_L1D", config, backing)
	}

	BeforeEach(func() {
		memory = mem.NewMemory()
		l1i, l1d := newCaches()
		c = core.NewCore(0, btb.New(btb.Config{}), l1i, l1d)
	})

	It("should train the predictor from a trace", func() {
		stats := c.Run(workload.LoopTrace(4, 50))

		Expect(stats.Branches).To(Equal(uint64(200)))
		// Every loop site repeats, so the target becomes known.
		Expect(stats.TargetHits).To(BeNumerically(">", 0))
	})

	It("should warm the instruction cache", func() {
		c.Run(workload.LoopTrace(4, 10))
		Expect(c.L1I.CheckpointEntries()).NotTo(BeEmpty())
	})

	It("should warm the data cache from memory events", func() {
		c.Run(workload.MemoryStrideTrace(0x10000, 64, 16))
		Expect(c.L1D.CheckpointEntries()).NotTo(BeEmpty())
	})

	Describe("checkpoint capability", func() {
		It("should capture state from a BTB predictor", func() {
			c.Run(workload.CallReturnTrace(4))

			state, ok := c.CaptureBTBState()
			Expect(ok).To(BeTrue())
			Expect(state.DirectEntries).NotTo(BeEmpty())
		})

		It("should report no capability for plain predictors", func() {
			l1i, l1d := newCaches()
			plain := core.NewCore(1, staticPredictor{}, l1i, l1d)

			_, ok := plain.CaptureBTBState()
			Expect(ok).To(BeFalse())
		})

		It("should ignore restore on plain predictors", func() {
			l1i, l1d := newCaches()
			plain := core.NewCore(1, staticPredictor{}, l1i, l1d)

			Expect(plain.RestoreBTBState(&btb.CheckpointState{})).To(Succeed())
		})

		It("should round-trip state through capture and restore", func() {
			c.Run(workload.MixedTrace(3, 200))
			state, ok := c.CaptureBTBState()
			Expect(ok).To(BeTrue())

			l1i, l1d := newCaches()
			fresh := core.NewCore(0, btb.New(btb.Config{}), l1i, l1d)
			Expect(fresh.RestoreBTBState(state)).To(Succeed())

			restored, ok := fresh.CaptureBTBState()
			Expect(ok).To(BeTrue())
			Expect(restored).To(Equal(state))
		})
	})
})
