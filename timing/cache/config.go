package cache

import (
	"fmt"
	"math/bits"
)

// Config holds the immutable configuration of one cache level.
type Config struct {
	// LevelName identifies the level in stats and log lines ("L1", "L2").
	LevelName string
	// OwnerCoreID is the core this level is private to. Shared levels
	// (the L2) use -1.
	OwnerCoreID int
	// Size is the total capacity in bytes.
	Size int
	// LineSize is the cache line size in bytes.
	LineSize int
	// Assoc is the number of ways per set. Must be a power of two.
	Assoc int
	// WriteBack selects write-back (true) or write-through (false).
	WriteBack bool
	// WriteAllocate selects write-allocate (true) or no-write-allocate.
	WriteAllocate bool
}

// NumSets derives the set count from Size, LineSize, and Assoc.
func (c Config) NumSets() int {
	return c.Size / (c.LineSize * c.Assoc)
}

// Validate checks the misconfiguration conditions from the error-handling
// design: assoc must be a power of two, and size must be evenly divisible
// by line_size*assoc.
func (c Config) Validate() error {
	if c.Assoc <= 0 || bits.OnesCount(uint(c.Assoc)) != 1 {
		return fmt.Errorf("cache %s: associativity %d is not a power of two", c.LevelName, c.Assoc)
	}
	if c.LineSize <= 0 {
		return fmt.Errorf("cache %s: line size must be positive", c.LevelName)
	}
	if c.Size%(c.LineSize*c.Assoc) != 0 {
		return fmt.Errorf("cache %s: size %d is not divisible by line_size*assoc (%d)",
			c.LevelName, c.Size, c.LineSize*c.Assoc)
	}
	return nil
}

// DefaultL1Config returns a small baseline L1 configuration suitable for
// calibration runs: 32 bytes, 4-byte lines, 2-way, write-back,
// write-allocate.
func DefaultL1Config(coreID int) Config {
	return Config{
		LevelName:     "L1",
		OwnerCoreID:   coreID,
		Size:          32,
		LineSize:      4,
		Assoc:         2,
		WriteBack:     true,
		WriteAllocate: true,
	}
}

// DefaultL2Config returns a baseline shared L2 configuration suitable for
// calibration runs: 1024 bytes, 4-byte lines, 16-way, write-back,
// write-allocate.
func DefaultL2Config() Config {
	return Config{
		LevelName:     "L2",
		OwnerCoreID:   -1,
		Size:          1024,
		LineSize:      4,
		Assoc:         16,
		WriteBack:     true,
		WriteAllocate: true,
	}
}
