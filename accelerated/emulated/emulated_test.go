package emulated_test

import (
	"testing"

	"github.com/haormj/gemmbench/accelerated/device"
	"github.com/haormj/gemmbench/accelerated/emulated"
	"github.com/stretchr/testify/require"
)

func TestAllocateAndRelease(t *testing.T) {
	dev := emulated.New("gpu")
	require.Equal(t, "gpu", dev.Name())

	a, err := dev.Allocate(8)
	require.NoError(t, err)
	require.Equal(t, 8, a.Len())
	require.Equal(t, 8, dev.InUse())
	require.Equal(t, 1, dev.Allocations())

	a.Release()
	a.Release()
	require.Zero(t, dev.InUse())
	require.Equal(t, 1, dev.Releases())
	require.NoError(t, dev.Release())
}

func TestAllocateInvalidLength(t *testing.T) {
	_, err := emulated.New("gpu").Allocate(0)
	require.Error(t, err)
}

func TestCapacity(t *testing.T) {
	dev := emulated.New("gpu", emulated.WithCapacity(10))

	a, err := dev.Allocate(6)
	require.NoError(t, err)

	_, err = dev.Allocate(6)
	require.ErrorIs(t, err, emulated.ErrOutOfMemory)

	a.Release()
	_, err = dev.Allocate(10)
	require.NoError(t, err)
}

func TestUploadDownloadLength(t *testing.T) {
	dev := emulated.New("gpu")
	a, err := dev.Allocate(3)
	require.NoError(t, err)

	require.Error(t, a.Upload([]float32{1, 2, 3, 4}))
	require.NoError(t, a.Upload([]float32{1, 2, 3}))
	require.NoError(t, a.Upload([]float32{5}))
	require.Equal(t, 4, dev.Transferred())

	dst := make([]float32, 2)
	require.NoError(t, a.Download(dst))
	require.Equal(t, []float32{5, 2}, dst)
	require.Equal(t, 6, dev.Transferred())
	require.Error(t, a.Download(make([]float32, 4)))

	a.Release()
	require.Error(t, a.Upload([]float32{1}))
}

func TestMatMulTN(t *testing.T) {
	dev := emulated.New("gpu")

	// a and b are 2x2 with a row stride of 3.
	a, err := dev.Allocate(6)
	require.NoError(t, err)
	require.NoError(t, a.Upload([]float32{1, 2, 0, 3, 4, 0}))

	b, err := dev.Allocate(6)
	require.NoError(t, err)
	require.NoError(t, b.Upload([]float32{5, 6, 0, 7, 8, 0}))

	c, err := dev.Allocate(4)
	require.NoError(t, err)

	g := device.Gemm{M: 2, N: 2, K: 2, StrideA: 3, StrideB: 3, StrideC: 2}
	require.NoError(t, dev.MatMulTN(c, a, b, g))

	out := make([]float32, 4)
	require.NoError(t, c.Download(out))
	require.Equal(t, []float32{26, 30, 38, 44}, out)
	require.Equal(t, 1, dev.Dispatches())
}

func TestMatMulTNForeignAllocation(t *testing.T) {
	dev := emulated.New("gpu")
	other := emulated.New("other")

	a, err := dev.Allocate(4)
	require.NoError(t, err)

	foreign, err := other.Allocate(4)
	require.NoError(t, err)

	g := device.Gemm{M: 2, N: 2, K: 2, StrideA: 2, StrideB: 2, StrideC: 2}
	require.ErrorIs(t, dev.MatMulTN(foreign, a, a, g), emulated.ErrForeignAllocation)

	a.Release()
	require.ErrorIs(t, dev.MatMulTN(a, a, a, g), emulated.ErrForeignAllocation)
	require.Zero(t, dev.Dispatches())
}
