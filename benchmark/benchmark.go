// Package benchmark times the device pipeline against the CPU pipeline and
// checks that both produce the same product.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/haormj/gemmbench/accelerated/cpu"
	"github.com/haormj/gemmbench/accelerated/device"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidConfig      = errors.New("benchmark: invalid configuration")
	ErrInsufficientMemory = errors.New("benchmark: insufficient memory")
	ErrMismatch           = errors.New("benchmark: device and cpu results differ")
)

// Resources are the matrices and pipelines shared by every test.
type Resources struct {
	DevicePipeline *device.Pipeline
	CPUPipeline    *cpu.Pipeline

	InputA       *device.Matrix
	InputB       *device.Matrix
	DeviceOutput *device.Matrix
	CPUOutput    *cpu.Matrix
}

// Sample is the timing of one test.
type Sample struct {
	Dimension int
	Device    time.Duration
	CPU       time.Duration
}

// Report is the outcome of a performance test.
type Report struct {
	Device       string
	LoopsPerTest int
	Samples      []Sample
	MaxError     float64
}

// GFLOPS returns the throughput of loops multiplications of n x n matrices
// that took d in total.
func GFLOPS(n, loops int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}

	flops := 2 * float64(n) * float64(n) * float64(n) * float64(loops)

	return flops / d.Seconds() / 1e9
}

type PerformanceTest struct {
	cfg       Config
	resources Resources
	rng       *rand.Rand
}

// New allocates the test resources on dev.
func New(dev device.Device, cfg Config) (*PerformanceTest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := checkMemory(cfg); err != nil {
		return nil, err
	}

	resources, err := newResources(dev, cfg)
	if err != nil {
		return nil, err
	}

	return &PerformanceTest{
		cfg:       cfg,
		resources: resources,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
	}, nil
}

// Close releases the device matrices. The test must not be run afterwards.
func (t *PerformanceTest) Close() error {
	if err := t.resources.Release(); err != nil {
		return fmt.Errorf("benchmark: failed to release resources: %w", err)
	}

	return nil
}

// Resources returns the matrices and pipelines used by the test.
func (t *PerformanceTest) Resources() Resources {
	return t.resources
}

// Run performs TestCount tests of LoopsPerTest multiplications on each
// backend, then verifies the final products against each other. The context
// is checked between tests; a multiplication in flight always completes.
func (t *PerformanceTest) Run(ctx context.Context) (Report, error) {
	report := Report{
		Device:       t.resources.DevicePipeline.Device().Name(),
		LoopsPerTest: t.cfg.LoopsPerTest,
	}

	for i := 0; i < t.cfg.TestCount; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sample, err := t.runTest(t.cfg.Dimension(i))
		if err != nil {
			return report, err
		}

		log.Info().
			Int("test", i).
			Int("dimension", sample.Dimension).
			Dur("device", sample.Device).
			Dur("cpu", sample.CPU).
			Float64("device_gflops", GFLOPS(sample.Dimension, t.cfg.LoopsPerTest, sample.Device)).
			Float64("cpu_gflops", GFLOPS(sample.Dimension, t.cfg.LoopsPerTest, sample.CPU)).
			Msg("benchmark: test complete")

		report.Samples = append(report.Samples, sample)
	}

	maxErr, err := t.Verify(ctx)
	report.MaxError = maxErr

	return report, err
}

// RunAsync runs the test on its own goroutine and passes the outcome to
// completion from that goroutine.
func (t *PerformanceTest) RunAsync(ctx context.Context, completion func(Report, error)) {
	go func() {
		report, err := t.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("benchmark: failure")
		}

		completion(report, err)
	}()
}

// Verify multiplies the current inputs once on each backend, concurrently,
// and returns the largest relative difference between the two products.
func (t *PerformanceTest) Verify(ctx context.Context) (float64, error) {
	r := t.resources
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.DevicePipeline.Multiply(accelerated.MultiplicationData[*device.Matrix]{
			InputA: r.InputA,
			InputB: r.InputB,
			Output: r.DeviceOutput,
		}, 0)
	})

	g.Go(func() error {
		return cpu.Multiply(accelerated.MultiplicationData[accelerated.Matrix]{
			InputA: r.InputA,
			InputB: r.InputB,
			Output: r.CPUOutput,
		}, 0)
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}

	maxErr := MaxRelativeError(r.DeviceOutput.ResizableBufferedMatrix, r.CPUOutput.ResizableBufferedMatrix)
	if maxErr > t.cfg.Tolerance {
		return maxErr, fmt.Errorf("%w: max relative error %g exceeds %g", ErrMismatch, maxErr, t.cfg.Tolerance)
	}

	log.Info().Float64("max_error", maxErr).Msg("benchmark: verified")

	return maxErr, nil
}

func (t *PerformanceTest) runTest(n int) (Sample, error) {
	r := t.resources

	for _, m := range []accelerated.ResizableMatrix{r.InputA, r.InputB, r.DeviceOutput, r.CPUOutput} {
		if err := m.Reshape(n, n); err != nil {
			return Sample{}, err
		}
	}

	t.fill(r.InputA.ResizableBufferedMatrix)
	t.fill(r.InputB.ResizableBufferedMatrix)

	sample := Sample{Dimension: n}
	repeat := t.cfg.LoopsPerTest - 1

	start := time.Now()
	if err := r.DevicePipeline.Multiply(accelerated.MultiplicationData[*device.Matrix]{
		InputA: r.InputA,
		InputB: r.InputB,
		Output: r.DeviceOutput,
	}, repeat); err != nil {
		return sample, err
	}
	sample.Device = time.Since(start)

	start = time.Now()
	if err := cpu.Multiply(accelerated.MultiplicationData[accelerated.Matrix]{
		InputA: r.InputA,
		InputB: r.InputB,
		Output: r.CPUOutput,
	}, repeat); err != nil {
		return sample, err
	}
	sample.CPU = time.Since(start)

	return sample, nil
}

func (t *PerformanceTest) fill(m *accelerated.ResizableBufferedMatrix) {
	for i := 0; i < m.RowCount(); i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = t.rng.Float32()*2 - 1
		}
	}
}

// MaxRelativeError returns max |a - b| / max(1, |b|) over the logical
// elements of two matrices of the same shape.
func MaxRelativeError(a, b *accelerated.ResizableBufferedMatrix) float64 {
	var maxErr float64

	for i := 0; i < b.RowCount(); i++ {
		rowA, rowB := a.Row(i), b.Row(i)
		for j := range rowB {
			diff := math.Abs(float64(rowA[j]) - float64(rowB[j]))
			diff /= math.Max(1, math.Abs(float64(rowB[j])))
			maxErr = math.Max(maxErr, diff)
		}
	}

	return maxErr
}

// Release frees every matrix that has been allocated. The CPU output is
// host memory and is left to the garbage collector.
func (r Resources) Release() error {
	var errs []error

	for _, m := range []*device.Matrix{r.InputA, r.InputB, r.DeviceOutput} {
		if m == nil {
			continue
		}

		if err := m.Release(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func newResources(dev device.Device, cfg Config) (r Resources, err error) {
	n := cfg.DimensionCapacity

	defer func() {
		if err == nil {
			return
		}

		if releaseErr := r.Release(); releaseErr != nil {
			log.Warn().Err(releaseErr).Msg("benchmark: failed to release partial resources")
		}

		r = Resources{}
	}()

	if r.DevicePipeline, err = device.NewPipeline(dev, cfg.CountAlignment); err != nil {
		return r, err
	}

	if r.CPUPipeline, err = cpu.NewPipeline(cfg.CountAlignment); err != nil {
		return r, err
	}

	if r.InputA, err = r.DevicePipeline.NewMatrix(n, n); err != nil {
		return r, err
	}

	if r.InputB, err = r.DevicePipeline.NewMatrix(n, n); err != nil {
		return r, err
	}

	if r.DeviceOutput, err = r.DevicePipeline.NewMatrix(n, n); err != nil {
		return r, err
	}

	if r.CPUOutput, err = r.CPUPipeline.NewMatrix(n, n); err != nil {
		return r, err
	}

	return r, nil
}

// checkMemory rejects configurations whose host side footprint, the staging
// copies of the three device matrices plus the CPU output, cannot fit.
func checkMemory(cfg Config) error {
	total := memory.TotalMemory()
	if total == 0 {
		return nil
	}

	bytesPerRow, ok := accelerated.BytesPerRow(cfg.DimensionCapacity, cfg.DimensionCapacity, cfg.CountAlignment)
	if !ok {
		return fmt.Errorf("%w: dimension %d", ErrInvalidConfig, cfg.DimensionCapacity)
	}

	required := 4 * uint64(cfg.DimensionCapacity) * uint64(bytesPerRow)
	if required > total {
		return fmt.Errorf("%w: %d bytes required, %d available", ErrInsufficientMemory, required, total)
	}

	return nil
}
