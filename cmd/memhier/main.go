// Command memhier runs the multi-core memory hierarchy simulator against
// a trace file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/memhier/sim"
)

var (
	configPath = flag.String("config", "", "Path to experiment configuration JSON file")
	cycles     = flag.Uint64("cycles", 100, "Number of cycles to simulate")
	verbose    = flag.Bool("v", false, "Emit per-cycle trace output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: memhier [options] <trace.json>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tracePath := flag.Arg(0)

	exp := sim.DefaultExperiment()
	if *configPath != "" {
		var err error
		exp, err = sim.LoadExperiment(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading experiment config: %v\n", err)
			os.Exit(1)
		}
	}

	traces, err := sim.LoadTraces(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = io.Discard
	if *verbose {
		out = os.Stdout
	}

	s, err := sim.New(exp, traces, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error constructing simulator: %v\n", err)
		os.Exit(1)
	}

	s.Simulate(*cycles)

	report := s.Report()
	fmt.Printf("Simulated %d cycles\n\n", report.Cycles)
	fmt.Printf("L2: hits=%d misses=%d miss_rate=%.3f\n", report.L2.Hits, report.L2.Misses, report.L2.MissRate)
	for id := 0; id < exp.NumCores; id++ {
		st := report.PerCore[id]
		fmt.Printf("L1 core%d: hits=%d misses=%d miss_rate=%.3f\n", id, st.Hits, st.Misses, st.MissRate)
	}
}
