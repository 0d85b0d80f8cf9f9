// Command memhier-root is a placeholder entry point.
// MemHier is a cycle-accurate multi-core memory hierarchy simulator.
//
// For the full CLI, use: go run ./cmd/memhier
package main

import "fmt"

func main() {
	fmt.Println("MemHier - Multi-Core Memory Hierarchy Simulator")
	fmt.Println("")
	fmt.Println("Usage: go run ./cmd/memhier [options] <trace.json>")
	fmt.Println("       go run ./cmd/scenarios [options]")
}
