package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/memhier/request"
	"github.com/sarchlab/memhier/timing/core"
)

// traceEntry is one scheduled memory operation in a trace file.
type traceEntry struct {
	Cycle uint64 `json:"cycle"`
	Kind  string `json:"kind"`
	Addr  uint64 `json:"addr"`
}

// traceFile maps a core id (as a string key, for JSON object syntax) to
// its list of scheduled operations.
type traceFile map[string][]traceEntry

// LoadTraces loads per-core traces from a JSON file shaped as:
//
//	{"0": [{"cycle":0,"kind":"read","addr":0}, ...], "1": [...]}
//
// Cycles not present in a core's trace are idle for that core.
func LoadTraces(path string) (map[int]map[uint64]core.Access, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}

	var tf traceFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse trace file: %w", err)
	}

	return decodeTraceFile(tf)
}

func decodeTraceFile(tf traceFile) (map[int]map[uint64]core.Access, error) {
	traces := make(map[int]map[uint64]core.Access, len(tf))

	for coreKey, entries := range tf {
		var coreID int
		if _, err := fmt.Sscanf(coreKey, "%d", &coreID); err != nil {
			return nil, fmt.Errorf("invalid core id %q in trace file: %w", coreKey, err)
		}

		trace := make(map[uint64]core.Access, len(entries))
		for _, e := range entries {
			kind, err := parseKind(e.Kind)
			if err != nil {
				return nil, fmt.Errorf("core %d cycle %d: %w", coreID, e.Cycle, err)
			}
			trace[e.Cycle] = core.Access{Kind: kind, Addr: e.Addr}
		}
		traces[coreID] = trace
	}

	return traces, nil
}

func parseKind(s string) (request.Kind, error) {
	switch s {
	case "read":
		return request.Read, nil
	case "write":
		return request.Write, nil
	default:
		return 0, fmt.Errorf("invalid access kind %q (want \"read\" or \"write\")", s)
	}
}
