// Package btb provides the branch-target-buffer model: a direct
// set-associative target predictor, an indirect target predictor, and a
// return-address stack, together with checkpoint capture and restore of
// their learned state.
package btb

// Entry is one occupied slot extracted from a Table.
type Entry[T any] struct {
	// Set and Way locate the slot within the table geometry.
	Set int
	Way int
	// LastUsed is an opaque recency marker; larger means more recent.
	LastUsed uint64
	// Payload is the slot contents.
	Payload T
}

type slot[T any] struct {
	valid    bool
	lastUsed uint64
	payload  T
}

// Table is a fixed-geometry set-associative table with LRU-style
// replacement driven by a per-slot recency counter. The table performs
// no geometry validation on restore; callers own the geometry constants
// and validate against them.
type Table[T any] struct {
	sets  int
	ways  int
	slots [][]slot[T]

	// accessCount supplies lastUsed values; monotonically increasing.
	accessCount uint64

	indexOf func(T) uint64
	match   func(a, b T) bool
}

// NewTable creates a table of sets x ways slots. indexOf maps a payload
// to its home set; match reports whether a probe payload addresses the
// same entry as a stored payload.
func NewTable[T any](sets, ways int, indexOf func(T) uint64, match func(a, b T) bool) *Table[T] {
	slots := make([][]slot[T], sets)
	for i := range slots {
		slots[i] = make([]slot[T], ways)
	}

	return &Table[T]{
		sets:    sets,
		ways:    ways,
		slots:   slots,
		indexOf: indexOf,
		match:   match,
	}
}

// Sets returns the number of sets.
func (t *Table[T]) Sets() int {
	return t.sets
}

// Ways returns the number of ways per set.
func (t *Table[T]) Ways() int {
	return t.ways
}

func (t *Table[T]) homeSet(value T) []slot[T] {
	return t.slots[t.indexOf(value)%uint64(t.sets)]
}

// CheckHit looks up the entry matching probe and returns its payload,
// refreshing its recency on hit.
func (t *Table[T]) CheckHit(probe T) (T, bool) {
	set := t.homeSet(probe)
	for i := range set {
		if set[i].valid && t.match(set[i].payload, probe) {
			t.accessCount++
			set[i].lastUsed = t.accessCount
			return set[i].payload, true
		}
	}

	var zero T
	return zero, false
}

// Fill inserts value, replacing a matching entry if present, otherwise
// the least recently used slot of its home set.
func (t *Table[T]) Fill(value T) {
	set := t.homeSet(value)

	victim := -1
	for i := range set {
		if set[i].valid && t.match(set[i].payload, value) {
			victim = i
			break
		}
	}
	if victim < 0 {
		victim = 0
		for i := range set {
			if !set[i].valid {
				victim = i
				break
			}
			if set[i].lastUsed < set[victim].lastUsed {
				victim = i
			}
		}
	}

	t.accessCount++
	set[victim] = slot[T]{
		valid:    true,
		lastUsed: t.accessCount,
		payload:  value,
	}
}

// Extract returns every occupied slot in set-major, way-minor order.
// It does not modify the table.
func (t *Table[T]) Extract() []Entry[T] {
	var entries []Entry[T]

	for setID := 0; setID < t.sets; setID++ {
		for wayID := 0; wayID < t.ways; wayID++ {
			s := t.slots[setID][wayID]
			if !s.valid {
				continue
			}
			entries = append(entries, Entry[T]{
				Set:      setID,
				Way:      wayID,
				LastUsed: s.lastUsed,
				Payload:  s.payload,
			})
		}
	}

	return entries
}

// Restore clears the table and places each entry at its (set, way).
// Entries addressing the same slot overwrite each other; the last one
// wins. Entries outside the geometry are ignored; geometry validation is
// the caller's responsibility. The recency counter resumes above the
// largest restored lastUsed value so later fills stay most recent.
func (t *Table[T]) Restore(entries []Entry[T]) {
	t.Clear()

	for _, e := range entries {
		if e.Set < 0 || e.Set >= t.sets || e.Way < 0 || e.Way >= t.ways {
			continue
		}
		t.slots[e.Set][e.Way] = slot[T]{
			valid:    true,
			lastUsed: e.LastUsed,
			payload:  e.Payload,
		}
		if e.LastUsed > t.accessCount {
			t.accessCount = e.LastUsed
		}
	}
}

// Clear invalidates every slot.
func (t *Table[T]) Clear() {
	for setID := range t.slots {
		for wayID := range t.slots[setID] {
			t.slots[setID][wayID] = slot[T]{}
		}
	}
	t.accessCount = 0
}
