package btb

// directEntry is the payload of one direct-predictor slot.
type directEntry struct {
	ipTag  uint64
	target uint64
	class  BranchClass
}

// directPredictor predicts targets for non-return, non-indirect branches
// using a set-associative table with LRU replacement.
type directPredictor struct {
	table *Table[directEntry]
}

func newDirectPredictor(sets, ways int) *directPredictor {
	indexOf := func(e directEntry) uint64 { return e.ipTag >> 2 }
	match := func(a, b directEntry) bool { return a.ipTag == b.ipTag }

	return &directPredictor{
		table: NewTable(sets, ways, indexOf, match),
	}
}

// checkHit returns the entry for ip, if one is cached.
func (d *directPredictor) checkHit(ip uint64) (directEntry, bool) {
	return d.table.CheckHit(directEntry{ipTag: ip})
}

// update records the observed target and class for ip.
func (d *directPredictor) update(ip, target uint64, bt BranchType) {
	d.table.Fill(directEntry{
		ipTag:  ip,
		target: target,
		class:  classOf(bt),
	})
}
