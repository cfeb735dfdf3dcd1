// Package main provides the entry point for coresim.
// Coresim is a cycle-level CPU simulator with checkpointable
// branch-predictor and cache state.
//
// For the full CLI, use: go run ./cmd/coresim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("coresim - checkpointable CPU warmup simulator")
	fmt.Println("")
	fmt.Println("Usage: coresim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config     Path to system configuration JSON file")
	fmt.Println("  -load       Checkpoint file to restore before running")
	fmt.Println("  -save       Checkpoint file to write after running")
	fmt.Println("  -no-warmup  Skip the warmup traces")
	fmt.Println("  -v          Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/coresim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/coresim' instead.")
	}
}
