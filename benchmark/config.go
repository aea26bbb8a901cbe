package benchmark

import "fmt"

// Config describes a performance test.
type Config struct {
	// DimensionCapacity is the largest square dimension tested. Matrices are
	// allocated at this size once and reshaped down for smaller tests.
	DimensionCapacity int
	TestCount         int
	LoopsPerTest      int
	CountAlignment    int

	// Tolerance bounds |device - cpu| / max(1, |cpu|) during verification.
	Tolerance float64
	Seed      uint64
}

func DefaultConfig() Config {
	return Config{
		DimensionCapacity: 2048,
		TestCount:         20,
		LoopsPerTest:      100,
		CountAlignment:    8,
		Tolerance:         1e-3,
		Seed:              1,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.DimensionCapacity <= 0:
		return fmt.Errorf("%w: dimension capacity %d", ErrInvalidConfig, c.DimensionCapacity)
	case c.TestCount <= 0:
		return fmt.Errorf("%w: test count %d", ErrInvalidConfig, c.TestCount)
	case c.LoopsPerTest <= 0:
		return fmt.Errorf("%w: loops per test %d", ErrInvalidConfig, c.LoopsPerTest)
	case c.CountAlignment <= 0:
		return fmt.Errorf("%w: count alignment %d", ErrInvalidConfig, c.CountAlignment)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: tolerance %g", ErrInvalidConfig, c.Tolerance)
	}

	return nil
}

// Dimension returns the square dimension of test i. The sweep grows linearly
// and ends at DimensionCapacity.
func (c Config) Dimension(i int) int {
	n := c.DimensionCapacity * (i + 1) / c.TestCount
	if n < 1 {
		return 1
	}

	return n
}
