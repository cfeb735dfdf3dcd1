package btb

// Config holds the structural constants of the BTB. All sizes are fixed
// at construction; checkpoints are only compatible between predictors
// built with identical geometry.
type Config struct {
	// DirectSets is the number of sets in the direct target predictor.
	// Must be a power of 2. Default is 1024.
	DirectSets int
	// DirectWays is the associativity of the direct target predictor.
	// Default is 8.
	DirectWays int
	// IndirectSize is the number of entries in the indirect target
	// predictor. Must be a power of 2. Default is 4096.
	IndirectSize int
	// HistoryLength is the width in bits of the global conditional
	// history register. Default is 12.
	HistoryLength int
	// ReturnStackDepth is the capacity of the return-address stack.
	// Default is 64.
	ReturnStackDepth int
	// CallSizeTrackers is the number of call-size correction slots.
	// Must be a power of 2. Default is 1024.
	CallSizeTrackers int
}

// DefaultConfig returns the default BTB geometry.
func DefaultConfig() Config {
	return Config{
		DirectSets:       1024,
		DirectWays:       8,
		IndirectSize:     4096,
		HistoryLength:    12,
		ReturnStackDepth: 64,
		CallSizeTrackers: 1024,
	}
}

// withDefaults fills zero fields with their defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DirectSets == 0 {
		c.DirectSets = def.DirectSets
	}
	if c.DirectWays == 0 {
		c.DirectWays = def.DirectWays
	}
	if c.IndirectSize == 0 {
		c.IndirectSize = def.IndirectSize
	}
	if c.HistoryLength == 0 {
		c.HistoryLength = def.HistoryLength
	}
	if c.ReturnStackDepth == 0 {
		c.ReturnStackDepth = def.ReturnStackDepth
	}
	if c.CallSizeTrackers == 0 {
		c.CallSizeTrackers = def.CallSizeTrackers
	}
	return c
}
