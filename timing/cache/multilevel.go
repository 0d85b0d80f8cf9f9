package cache

// MultiLevel is a thin composition of a private L1 over a shared L2: it
// delegates every access to L1, which in turn is wired to the shared L2
// passed in at construction.
type MultiLevel struct {
	L1 *Level
	L2 *Level
}

// NewMultiLevel creates the per-core L1 and wires it to the shared L2.
func NewMultiLevel(l1Config Config, l2 *Level) (*MultiLevel, error) {
	l1, err := New(l1Config)
	if err != nil {
		return nil, err
	}
	l1.SetLower(l2)

	return &MultiLevel{L1: l1, L2: l2}, nil
}

// Read delegates to L1.
func (m *MultiLevel) Read(coreID int, cycle uint64, addr uint64, onComplete func()) {
	m.L1.Read(coreID, cycle, addr, onComplete)
}

// Write delegates to L1.
func (m *MultiLevel) Write(coreID int, cycle uint64, addr uint64) {
	m.L1.Write(coreID, cycle, addr)
}

// Stats returns this core's L1 statistics. The shared L2's statistics are
// read directly off the single L2 instance.
func (m *MultiLevel) Stats() Statistics {
	return m.L1.Stats()
}
