package cpu

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Matrix is a reshapeable matrix in host memory.
type Matrix struct {
	*accelerated.ResizableBufferedMatrix
}

func NewMatrix(rowCount, columnCount, countAlignment int) (*Matrix, error) {
	m, err := accelerated.NewResizableBufferedMatrix(rowCount, columnCount, countAlignment, NewBuffer())
	if err != nil {
		return nil, err
	}

	return &Matrix{ResizableBufferedMatrix: m}, nil
}

// Pipeline multiplies host matrices with BLAS sgemm.
type Pipeline struct {
	countAlignment int
}

func NewPipeline(countAlignment int) (*Pipeline, error) {
	if countAlignment <= 0 {
		return nil, fmt.Errorf("accelerated/cpu: alignment %d: %w", countAlignment, accelerated.ErrInvalidAlignment)
	}

	return &Pipeline{countAlignment: countAlignment}, nil
}

// CountAlignment returns the column count alignment of vended matrices.
func (p *Pipeline) CountAlignment() int {
	return p.countAlignment
}

// NewMatrix implements accelerated.Pipeline.
func (p *Pipeline) NewMatrix(rowCount, columnCount int) (*Matrix, error) {
	return NewMatrix(rowCount, columnCount, p.countAlignment)
}

// Multiply implements accelerated.Pipeline.
func (p *Pipeline) Multiply(data accelerated.MultiplicationData[*Matrix], repeatCount int) error {
	return Multiply(data, repeatCount)
}

// Multiply computes data.Output = data.InputAᵗ · data.InputB on the CPU,
// 1+repeatCount times. Any matrix type whose Elements are host addressable
// can be used, including device matrices through their staging memory.
func Multiply[M accelerated.Matrix](data accelerated.MultiplicationData[M], repeatCount int) error {
	if err := accelerated.Validate(data, repeatCount); err != nil {
		return err
	}

	a := general(data.InputA)
	b := general(data.InputB)
	c := general(data.Output)

	log.Debug().
		Int("m", c.Rows).
		Int("n", c.Cols).
		Int("k", b.Rows).
		Int("repeat", repeatCount).
		Msg("accelerated/cpu: sgemm")

	for i := 0; i <= repeatCount; i++ {
		blas32.Gemm(blas.Trans, blas.NoTrans, 1, a, b, 0, c)
	}

	return nil
}

func general(m accelerated.Matrix) blas32.General {
	return blas32.General{
		Rows:   m.RowCount(),
		Cols:   m.ColumnCount(),
		Stride: accelerated.Stride(m),
		Data:   m.Elements(),
	}
}

var _ accelerated.Pipeline[*Matrix] = &Pipeline{}
