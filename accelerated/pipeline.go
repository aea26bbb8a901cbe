// Package accelerated defines the memory and multiplication contracts shared
// by the CPU and device backends: resizable buffers, row-padded matrices on
// top of them, and pipelines that compute Output = InputAᵗ · InputB.
package accelerated

// Pipeline multiplies matrices of type M on one backend.
type Pipeline[M Matrix] interface {
	// NewMatrix vends a matrix laid out and allocated for this pipeline.
	NewMatrix(rowCount, columnCount int) (M, error)

	// Multiply computes data.Output = data.InputAᵗ · data.InputB, 1+repeatCount
	// times. Shape and argument errors are reported before any work is done.
	Multiply(data MultiplicationData[M], repeatCount int) error
}
