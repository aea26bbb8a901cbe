// Package device runs the multiplication on an accelerator. The accelerator is
// reached through the Device interface, implemented by the blackcl, goopencl
// and emulated packages.
package device

// Gemm describes one Output = Aᵗ · B dispatch. M x N is the output shape, K the
// contraction dimension, and the strides are leading dimensions in elements.
type Gemm struct {
	M, N, K int

	StrideA int
	StrideB int
	StrideC int
}

// Device allocates device memory and runs the transposed multiplication kernel.
type Device interface {
	Name() string

	// Allocate returns a block of length float32 elements. Its contents are
	// unspecified.
	Allocate(length int) (Allocation, error)

	// MatMulTN computes c = aᵗ · b with alpha 1 and beta 0 and blocks until
	// the kernel has finished.
	MatMulTN(c, a, b Allocation, g Gemm) error

	Release() error
}

// Allocation is a block of device memory holding float32 elements.
type Allocation interface {
	Len() int

	// Upload copies src to the first len(src) elements of the block. src must
	// not be longer than Len.
	Upload(src []float32) error

	// Download copies the first len(dst) elements of the block into dst. dst
	// must not be longer than Len.
	Download(dst []float32) error

	Release()
}
