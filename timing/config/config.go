// Package config defines the simulated system's structural
// configuration and its JSON file format.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// SimConfig describes the simulated system: how many cores to build,
// the BTB geometry, and the cache shapes. Checkpoints are only
// compatible between systems built from identical configurations.
type SimConfig struct {
	// Cores is the number of CPU cores. Default: 1.
	Cores int `json:"cores"`

	// BTBDirectSets is the direct predictor's set count. Must be a
	// power of 2. Default: 1024.
	BTBDirectSets int `json:"btb_direct_sets"`

	// BTBDirectWays is the direct predictor's associativity.
	// Default: 8.
	BTBDirectWays int `json:"btb_direct_ways"`

	// BTBIndirectSize is the indirect predictor's entry count. Must be
	// a power of 2. Default: 4096.
	BTBIndirectSize int `json:"btb_indirect_size"`

	// BTBHistoryLength is the conditional history width in bits.
	// Default: 12.
	BTBHistoryLength int `json:"btb_history_length"`

	// BTBReturnStackDepth is the return-address stack capacity.
	// Default: 64.
	BTBReturnStackDepth int `json:"btb_return_stack_depth"`

	// BTBCallSizeTrackers is the call-size tracker count. Must be a
	// power of 2. Default: 1024.
	BTBCallSizeTrackers int `json:"btb_call_size_trackers"`

	// L1ISizeKB is the per-core L1 instruction cache size in KB.
	// Default: 32.
	L1ISizeKB int `json:"l1i_size_kb"`

	// L1IAssociativity is the L1I way count. Default: 8.
	L1IAssociativity int `json:"l1i_associativity"`

	// L1DSizeKB is the per-core L1 data cache size in KB. Default: 48.
	L1DSizeKB int `json:"l1d_size_kb"`

	// L1DAssociativity is the L1D way count. Default: 12.
	L1DAssociativity int `json:"l1d_associativity"`

	// BlockSize is the cache line size in bytes. Default: 64.
	BlockSize int `json:"block_size"`

	// WorkloadSeed seeds the synthetic warmup traces. Default: 1.
	WorkloadSeed int64 `json:"workload_seed"`
}

// DefaultSimConfig returns a single-core system with default geometry.
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		Cores:               1,
		BTBDirectSets:       1024,
		BTBDirectWays:       8,
		BTBIndirectSize:     4096,
		BTBHistoryLength:    12,
		BTBReturnStackDepth: 64,
		BTBCallSizeTrackers: 1024,
		L1ISizeKB:           32,
		L1IAssociativity:    8,
		L1DSizeKB:           48,
		L1DAssociativity:    12,
		BlockSize:           64,
		WorkloadSeed:        1,
	}
}

// LoadConfig loads a SimConfig from a JSON file. Fields absent from
// the file keep their defaults.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sim config file: %w", err)
	}

	config := DefaultSimConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse sim config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a SimConfig to a JSON file.
func (c *SimConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize sim config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sim config file: %w", err)
	}

	return nil
}

// Validate checks structural constraints.
func (c *SimConfig) Validate() error {
	if c.Cores <= 0 {
		return fmt.Errorf("cores must be > 0")
	}
	if c.BTBDirectSets <= 0 || c.BTBDirectSets&(c.BTBDirectSets-1) != 0 {
		return fmt.Errorf("btb_direct_sets must be a power of 2")
	}
	if c.BTBDirectWays <= 0 {
		return fmt.Errorf("btb_direct_ways must be > 0")
	}
	if c.BTBIndirectSize <= 0 || c.BTBIndirectSize&(c.BTBIndirectSize-1) != 0 {
		return fmt.Errorf("btb_indirect_size must be a power of 2")
	}
	if c.BTBHistoryLength <= 0 || c.BTBHistoryLength > 64 {
		return fmt.Errorf("btb_history_length must be in 1..64")
	}
	if c.BTBReturnStackDepth <= 0 {
		return fmt.Errorf("btb_return_stack_depth must be > 0")
	}
	if c.BTBCallSizeTrackers <= 0 || c.BTBCallSizeTrackers&(c.BTBCallSizeTrackers-1) != 0 {
		return fmt.Errorf("btb_call_size_trackers must be a power of 2")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be > 0")
	}
	if c.L1ISizeKB <= 0 || c.L1DSizeKB <= 0 {
		return fmt.Errorf("cache sizes must be > 0")
	}
	return nil
}
