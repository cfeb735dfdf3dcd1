package btb

// defaultCallSize is the correction applied to a predicted return target
// before any calibration: one 4-byte call instruction.
const defaultCallSize int64 = 4

// returnStack predicts return targets. It keeps a bounded stack of call
// sites, dropping the oldest entry on overflow, and a table of per-slot
// call-size corrections learned from observed return targets.
type returnStack struct {
	stack    []uint64
	maxDepth int

	callSizes []int64
}

func newReturnStack(depth, trackers int) *returnStack {
	rs := &returnStack{
		maxDepth:  depth,
		callSizes: make([]int64, trackers),
	}
	rs.resetCallSizes()
	return rs
}

func (rs *returnStack) trackerIndex(ip uint64) int {
	return int((ip >> 2) % uint64(len(rs.callSizes)))
}

// push records a call site, dropping the oldest entry at capacity.
func (rs *returnStack) push(ip uint64) {
	rs.stack = append(rs.stack, ip)
	if len(rs.stack) > rs.maxDepth {
		rs.stack = rs.stack[1:]
	}
}

// prediction returns the expected return target: the most recent call
// site plus its learned call size.
func (rs *returnStack) prediction() (uint64, bool) {
	if len(rs.stack) == 0 {
		return 0, false
	}

	top := rs.stack[len(rs.stack)-1]
	return top + uint64(rs.callSizes[rs.trackerIndex(top)]), true
}

// calibrate pops the most recent call site and learns the call size from
// the observed return target.
func (rs *returnStack) calibrate(target uint64) {
	if len(rs.stack) == 0 {
		return
	}

	top := rs.stack[len(rs.stack)-1]
	rs.stack = rs.stack[:len(rs.stack)-1]
	rs.callSizes[rs.trackerIndex(top)] = int64(target - top)
}

func (rs *returnStack) resetCallSizes() {
	for i := range rs.callSizes {
		rs.callSizes[i] = defaultCallSize
	}
}

func (rs *returnStack) reset() {
	rs.stack = rs.stack[:0]
	rs.resetCallSizes()
}
