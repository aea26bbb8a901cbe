// Package opencl holds the OpenCL kernel shared by the blackcl and goopencl
// device adapters.
package opencl

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/haormj/gemmbench/accelerated/device"
)

//go:embed matmul.cl
var MatMulSource string

const MatMulKernel = "matmul_tn"

// DimsLength is the element count of the kernel's dims buffer.
const DimsLength = 6

// LocalGroupSize is the work group edge used when the adapter lets us choose
// a local size. Global sizes are padded up to it.
const LocalGroupSize = 8

// GlobalSize returns count rounded up to whole work groups.
func GlobalSize(count int) int {
	n, ok := accelerated.PadCount(count, LocalGroupSize)
	if !ok {
		return 0
	}

	return n
}

// Args returns the scalar kernel arguments m, n, k, lda, ldb, ldc in order.
func Args(g device.Gemm) ([]uint32, error) {
	vals := []int{g.M, g.N, g.K, g.StrideA, g.StrideB, g.StrideC}
	args := make([]uint32, len(vals))

	for i, v := range vals {
		if v <= 0 || uint64(v) > math.MaxUint32 {
			return nil, fmt.Errorf("accelerated/opencl: kernel argument %d out of range: %d", i, v)
		}

		args[i] = uint32(v)
	}

	return args, nil
}

// Dims returns the kernel dims buffer for g. Both adapters only move float32
// vectors, so each argument is stored as the float32 with the same bits and
// the kernel reads the buffer back as uint.
func Dims(g device.Gemm) ([]float32, error) {
	args, err := Args(g)
	if err != nil {
		return nil, err
	}

	dims := make([]float32, DimsLength)
	for i, a := range args {
		dims[i] = math.Float32frombits(a)
	}

	return dims, nil
}
