package btb

// indirectPredictor predicts targets for indirect branches using a
// direct-mapped table indexed by a hash of the branch address and the
// global conditional history.
type indirectPredictor struct {
	targets     []uint64
	history     uint64
	historyMask uint64
}

func newIndirectPredictor(size, historyLength int) *indirectPredictor {
	return &indirectPredictor{
		targets:     make([]uint64, size),
		historyMask: (uint64(1) << historyLength) - 1,
	}
}

func (p *indirectPredictor) index(ip uint64) uint64 {
	return ((ip >> 2) ^ p.history) % uint64(len(p.targets))
}

// predict returns the cached target for ip under the current history.
func (p *indirectPredictor) predict(ip uint64) (uint64, bool) {
	target := p.targets[p.index(ip)]
	return target, target != 0
}

// updateTarget records the observed target for ip.
func (p *indirectPredictor) updateTarget(ip, target uint64) {
	p.targets[p.index(ip)] = target
}

// updateDirection shifts a conditional outcome into the history register.
func (p *indirectPredictor) updateDirection(taken bool) {
	p.history <<= 1
	if taken {
		p.history |= 1
	}
	p.history &= p.historyMask
}

// setHistory assigns the history register, masking to its width.
func (p *indirectPredictor) setHistory(value uint64) {
	p.history = value & p.historyMask
}

func (p *indirectPredictor) reset() {
	for i := range p.targets {
		p.targets[i] = 0
	}
	p.history = 0
}
