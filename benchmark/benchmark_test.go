package benchmark_test

import (
	"context"
	"testing"
	"time"

	"github.com/haormj/gemmbench/accelerated/emulated"
	"github.com/haormj/gemmbench/benchmark"
	"github.com/stretchr/testify/require"
)

func smallConfig() benchmark.Config {
	cfg := benchmark.DefaultConfig()
	cfg.DimensionCapacity = 24
	cfg.TestCount = 3
	cfg.LoopsPerTest = 2

	return cfg
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := benchmark.DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 2048, cfg.DimensionCapacity)
	require.Equal(t, 20, cfg.TestCount)
	require.Equal(t, 100, cfg.LoopsPerTest)
	require.Equal(t, 8, cfg.CountAlignment)
}

func TestInvalidTestIsRejected(t *testing.T) {
	cfg := smallConfig()
	cfg.TestCount = 0
	cfg.LoopsPerTest = 0

	test, err := benchmark.New(emulated.New("gpu"), cfg)
	require.ErrorIs(t, err, benchmark.ErrInvalidConfig)
	require.Nil(t, test)

	cfg = smallConfig()
	cfg.LoopsPerTest = -1
	_, err = benchmark.New(emulated.New("gpu"), cfg)
	require.ErrorIs(t, err, benchmark.ErrInvalidConfig)
}

func TestDimensionSweep(t *testing.T) {
	cfg := smallConfig()
	require.Equal(t, 8, cfg.Dimension(0))
	require.Equal(t, 16, cfg.Dimension(1))
	require.Equal(t, 24, cfg.Dimension(2))

	cfg.DimensionCapacity = 2
	cfg.TestCount = 4
	require.Equal(t, 1, cfg.Dimension(0))
	require.Equal(t, 2, cfg.Dimension(3))
}

func TestResourceCreationFailure(t *testing.T) {
	// Room for two 24x24 matrices but not the third.
	dev := emulated.New("gpu", emulated.WithCapacity(2*24*24+100))

	test, err := benchmark.New(dev, smallConfig())
	require.ErrorIs(t, err, emulated.ErrOutOfMemory)
	require.Nil(t, test)
	require.Equal(t, 2, dev.Allocations())
	require.Equal(t, 2, dev.Releases())
	require.Zero(t, dev.InUse())
}

func TestClose(t *testing.T) {
	dev := emulated.New("gpu")
	test, err := benchmark.New(dev, smallConfig())
	require.NoError(t, err)
	require.Equal(t, 3*24*24, dev.InUse())

	_, err = test.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, test.Close())
	require.Zero(t, dev.InUse())
	require.Equal(t, 3, dev.Releases())

	require.NoError(t, test.Close())
	require.Equal(t, 3, dev.Releases())
}

func TestRun(t *testing.T) {
	dev := emulated.New("gpu")
	test, err := benchmark.New(dev, smallConfig())
	require.NoError(t, err)
	require.Equal(t, 3, dev.Allocations())

	report, err := test.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "gpu", report.Device)
	require.Len(t, report.Samples, 3)
	require.Equal(t, 24, report.Samples[2].Dimension)
	require.LessOrEqual(t, report.MaxError, 1e-3)

	// every test fits in the capacity allocated up front
	require.Equal(t, 3, dev.Allocations())
	require.Equal(t, 3*2+1, dev.Dispatches())
}

func TestRunCancelled(t *testing.T) {
	test, err := benchmark.New(emulated.New("gpu"), smallConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := test.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, report.Samples)
}

func TestRunAsync(t *testing.T) {
	test, err := benchmark.New(emulated.New("gpu"), smallConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	test.RunAsync(context.Background(), func(report benchmark.Report, err error) {
		done <- err
	})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("completion was not called")
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	test, err := benchmark.New(emulated.New("gpu"), smallConfig())
	require.NoError(t, err)

	_, err = test.Run(context.Background())
	require.NoError(t, err)

	r := test.Resources()
	out := r.CPUOutput.Row(0)
	out[0] += 10
	require.Greater(t, benchmark.MaxRelativeError(r.DeviceOutput.ResizableBufferedMatrix, r.CPUOutput.ResizableBufferedMatrix), 1e-3)
}

func TestGFLOPS(t *testing.T) {
	require.InDelta(t, 2.0, benchmark.GFLOPS(1000, 1, time.Second), 1e-9)
	require.Zero(t, benchmark.GFLOPS(1000, 1, 0))
}
