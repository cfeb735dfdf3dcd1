package btb_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/coresim/timing/btb"
)

type tableItem struct {
	key   uint64
	value uint64
}

func newTestTable(sets, ways int) *btb.Table[tableItem] {
	return btb.NewTable(sets, ways,
		func(i tableItem) uint64 { return i.key },
		func(a, b tableItem) bool { return a.key == b.key },
	)
}

var _ = Describe("Table", func() {
	var table *btb.Table[tableItem]

	BeforeEach(func() {
		table = newTestTable(4, 2)
	})

	It("should miss on an empty table", func() {
		_, hit := table.CheckHit(tableItem{key: 1})
		Expect(hit).To(BeFalse())
	})

	It("should hit after a fill", func() {
		table.Fill(tableItem{key: 1, value: 10})

		item, hit := table.CheckHit(tableItem{key: 1})
		Expect(hit).To(BeTrue())
		Expect(item.value).To(Equal(uint64(10)))
	})

	It("should overwrite a matching entry in place", func() {
		table.Fill(tableItem{key: 1, value: 10})
		table.Fill(tableItem{key: 1, value: 20})

		Expect(table.Extract()).To(HaveLen(1))
		item, _ := table.CheckHit(tableItem{key: 1})
		Expect(item.value).To(Equal(uint64(20)))
	})

	It("should evict the least recently used way", func() {
		// Keys 0, 4, 8 all map to set 0 of a 4-set table.
		table.Fill(tableItem{key: 0, value: 1})
		table.Fill(tableItem{key: 4, value: 2})

		// Touch key 0 so key 4 becomes LRU.
		_, hit := table.CheckHit(tableItem{key: 0})
		Expect(hit).To(BeTrue())

		table.Fill(tableItem{key: 8, value: 3})

		_, hit = table.CheckHit(tableItem{key: 4})
		Expect(hit).To(BeFalse())
		_, hit = table.CheckHit(tableItem{key: 0})
		Expect(hit).To(BeTrue())
	})

	Describe("Extract", func() {
		It("should return occupied slots in set-major order", func() {
			table.Fill(tableItem{key: 3, value: 30})
			table.Fill(tableItem{key: 1, value: 10})

			entries := table.Extract()
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Set).To(Equal(1))
			Expect(entries[0].Payload.value).To(Equal(uint64(10)))
			Expect(entries[1].Set).To(Equal(3))
			Expect(entries[1].Payload.value).To(Equal(uint64(30)))
		})

		It("should not modify the table", func() {
			table.Fill(tableItem{key: 1, value: 10})

			first := table.Extract()
			second := table.Extract()
			Expect(second).To(Equal(first))
		})
	})

	Describe("Restore", func() {
		It("should reproduce extracted state exactly", func() {
			table.Fill(tableItem{key: 0, value: 1})
			table.Fill(tableItem{key: 4, value: 2})
			table.Fill(tableItem{key: 3, value: 3})
			entries := table.Extract()

			fresh := newTestTable(4, 2)
			fresh.Restore(entries)

			Expect(fresh.Extract()).To(Equal(entries))
		})

		It("should clear slots not present in the entries", func() {
			table.Fill(tableItem{key: 1, value: 10})
			table.Fill(tableItem{key: 2, value: 20})

			table.Restore([]btb.Entry[tableItem]{{
				Set: 3, Way: 0, LastUsed: 5,
				Payload: tableItem{key: 3, value: 30},
			}})

			entries := table.Extract()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Set).To(Equal(3))
		})

		It("should let the last duplicate slot win", func() {
			table.Restore([]btb.Entry[tableItem]{
				{Set: 0, Way: 0, Payload: tableItem{key: 0, value: 1}},
				{Set: 0, Way: 0, Payload: tableItem{key: 4, value: 2}},
			})

			entries := table.Extract()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Payload.value).To(Equal(uint64(2)))
		})

		It("should keep restored recency ordering for later evictions", func() {
			table.Restore([]btb.Entry[tableItem]{
				{Set: 0, Way: 0, LastUsed: 100, Payload: tableItem{key: 0, value: 1}},
				{Set: 0, Way: 1, LastUsed: 7, Payload: tableItem{key: 4, value: 2}},
			})

			// The new fill must evict the way with LastUsed 7.
			table.Fill(tableItem{key: 8, value: 3})

			_, hit := table.CheckHit(tableItem{key: 0})
			Expect(hit).To(BeTrue())
			_, hit = table.CheckHit(tableItem{key: 4})
			Expect(hit).To(BeFalse())
		})
	})

	Describe("Clear", func() {
		It("should invalidate every slot", func() {
			table.Fill(tableItem{key: 1, value: 10})
			table.Clear()
			Expect(table.Extract()).To(BeEmpty())
		})
	})
})
