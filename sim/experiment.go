// Package sim ties the cache hierarchy, interconnect, DDR controller, DDR
// memory, and cores together into the global-clock simulator loop.
package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/memhier/timing/cache"
	"github.com/sarchlab/memhier/timing/ddr"
	"github.com/sarchlab/memhier/timing/interconnect"
)

// Experiment holds every parameter needed to construct a Simulator: cache
// shapes, interconnect timing, DDR timing, and the RNG seed.
type Experiment struct {
	// NumCores is the number of cores, each with its own private L1.
	NumCores int `json:"num_cores"`
	// L1 is the per-core L1 configuration. OwnerCoreID and LevelName are
	// overridden per core at construction time.
	L1 cache.Config `json:"l1"`
	// L2 is the shared L2 configuration.
	L2 cache.Config `json:"l2"`
	// Interconnect holds the fabric's delay and bandwidth.
	Interconnect interconnect.Config `json:"interconnect"`
	// DDR holds the controller/bank timing constants and bank/row mapping.
	DDR ddr.ControllerConfig `json:"ddr"`
	// Seed seeds the single RNG used for interconnect jitter.
	Seed int64 `json:"seed"`
}

// DefaultExperiment returns a small, deterministic baseline configuration
// suitable for calibration runs: L1 {32,4,2}, L2 {1024,4,16}, interconnect
// {delay:5, bandwidth:4}, DDR {num_banks:4}, seed 0.
func DefaultExperiment() Experiment {
	return Experiment{
		NumCores:     1,
		L1:           cache.DefaultL1Config(0),
		L2:           cache.DefaultL2Config(),
		Interconnect: interconnect.Config{Delay: 5, Bandwidth: 4},
		DDR:          ddr.DefaultControllerConfig(),
		Seed:         0,
	}
}

// Validate fails fast on misconfiguration: cache shapes, interconnect
// bandwidth, and DDR bank/row-stride parameters.
func (e Experiment) Validate() error {
	if e.NumCores <= 0 {
		return fmt.Errorf("experiment: num_cores must be positive, got %d", e.NumCores)
	}
	if err := e.L1.Validate(); err != nil {
		return err
	}
	if err := e.L2.Validate(); err != nil {
		return err
	}
	if e.Interconnect.Bandwidth <= 0 {
		return fmt.Errorf("experiment: interconnect bandwidth must be positive")
	}
	if err := e.DDR.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadExperiment loads an Experiment from a JSON file, starting from
// DefaultExperiment and overriding any fields the file specifies.
func LoadExperiment(path string) (Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, fmt.Errorf("failed to read experiment file: %w", err)
	}

	exp := DefaultExperiment()
	if err := json.Unmarshal(data, &exp); err != nil {
		return Experiment{}, fmt.Errorf("failed to parse experiment: %w", err)
	}

	return exp, nil
}

// SaveExperiment writes an Experiment to a JSON file.
func SaveExperiment(e Experiment, path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize experiment: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write experiment file: %w", err)
	}

	return nil
}
