// Command scenarios runs a fixed set of named end-to-end memory-access
// scenarios and reports each one's per-level cache hit/miss statistics
// (shared L2 and each core's L1), for calibration against known-good
// expectations.
//
// Usage:
//
//	go run ./cmd/scenarios [flags]
//
// Flags:
//
//	-csv  Output results in CSV format (default: human-readable)
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/memhier/request"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/timing/core"
)

// scenario is one named end-to-end memory-access trace run through the
// full simulator.
type scenario struct {
	name   string
	cycles uint64
	traces map[int]map[uint64]core.Access
}

type result struct {
	name   string
	report sim.Report
}

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	flag.Parse()

	scenarios := scenarioSet()
	results := make([]result, 0, len(scenarios))

	for _, sc := range scenarios {
		s, err := sim.New(sim.DefaultExperiment(), sc.traces, io.Discard)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scenario %s: %v\n", sc.name, err)
			os.Exit(1)
		}
		s.Simulate(sc.cycles)
		results = append(results, result{name: sc.name, report: s.Report()})
	}

	if *csvOutput {
		printCSV(results)
		return
	}
	printResults(results)
}

func printResults(results []result) {
	fmt.Println("Memory Hierarchy Scenario Report")
	fmt.Println("=================================")
	for _, r := range results {
		fmt.Printf("\n%s (cycles=%d)\n", r.name, r.report.Cycles)
		fmt.Printf("  L2: hits=%d misses=%d miss_rate=%.3f\n",
			r.report.L2.Hits, r.report.L2.Misses, r.report.L2.MissRate)
		for id := 0; id < len(r.report.PerCore); id++ {
			st, ok := r.report.PerCore[id]
			if !ok {
				continue
			}
			fmt.Printf("  L1 core%d: hits=%d misses=%d miss_rate=%.3f\n", id, st.Hits, st.Misses, st.MissRate)
		}
	}
}

func printCSV(results []result) {
	fmt.Println("scenario,cycles,level,hits,misses,miss_rate")
	for _, r := range results {
		fmt.Printf("%s,%d,L2,%d,%d,%.3f\n", r.name, r.report.Cycles, r.report.L2.Hits, r.report.L2.Misses, r.report.L2.MissRate)
		for id := 0; id < len(r.report.PerCore); id++ {
			st, ok := r.report.PerCore[id]
			if !ok {
				continue
			}
			fmt.Printf("%s,%d,L1.core%d,%d,%d,%.3f\n", r.name, r.report.Cycles, id, st.Hits, st.Misses, st.MissRate)
		}
	}
}

// scenarioSet builds the six named calibration scenarios: same-line reuse,
// same-bank/different-row reuse, different-bank independence, a two-core
// arbitrary trace, a hazard stall, and a write-back eviction.
func scenarioSet() []scenario {
	core0 := func(entries map[uint64]core.Access) map[int]map[uint64]core.Access {
		return map[int]map[uint64]core.Access{0: entries}
	}

	return []scenario{
		{
			name:   "same-line-reuse",
			cycles: 100,
			traces: core0(map[uint64]core.Access{
				0:  {Kind: request.Read, Addr: 0},
				60: {Kind: request.Read, Addr: 2},
			}),
		},
		{
			name:   "same-bank-different-rows",
			cycles: 100,
			traces: core0(map[uint64]core.Access{
				0:  {Kind: request.Read, Addr: 0},
				60: {Kind: request.Read, Addr: 2000},
			}),
		},
		{
			name:   "different-banks",
			cycles: 100,
			traces: core0(map[uint64]core.Access{
				0:  {Kind: request.Read, Addr: 0},
				60: {Kind: request.Read, Addr: 17},
			}),
		},
		{
			name:   "two-core-arbitrary-trace",
			cycles: 200,
			traces: map[int]map[uint64]core.Access{
				0: {
					0:  {Kind: request.Read, Addr: 0},
					10: {Kind: request.Write, Addr: 5},
					60: {Kind: request.Read, Addr: 17},
				},
				1: {
					3:  {Kind: request.Read, Addr: 2},
					15: {Kind: request.Write, Addr: 6},
					45: {Kind: request.Read, Addr: 23},
				},
			},
		},
		{
			name:   "hazard-stall",
			cycles: 100,
			traces: core0(map[uint64]core.Access{
				0: {Kind: request.Read, Addr: 0},
				1: {Kind: request.Write, Addr: 0},
			}),
		},
		{
			name:   "write-back-eviction",
			cycles: 100,
			traces: core0(evictionTrace()),
		},
	}
}

// evictionTrace fills an L1 set (2-way, 4-byte lines, 32-byte cache: 4
// sets) beyond its associativity with dirty writes, then accesses a new
// tag in the same set to force a dirty write-back.
func evictionTrace() map[uint64]core.Access {
	// Addresses 0 and 16 both map to set 0 (index = (addr/4) % 4 = 0).
	// Address 32 also maps to set 0 with a new tag.
	return map[uint64]core.Access{
		0:  {Kind: request.Write, Addr: 0},
		1:  {Kind: request.Write, Addr: 16},
		60: {Kind: request.Write, Addr: 32},
	}
}
