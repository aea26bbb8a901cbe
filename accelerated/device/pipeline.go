package device

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/rs/zerolog/log"
)

// Pipeline multiplies matrices on one device.
type Pipeline struct {
	device         Device
	countAlignment int
}

func NewPipeline(device Device, countAlignment int) (*Pipeline, error) {
	if device == nil {
		return nil, fmt.Errorf("accelerated/device: %w", accelerated.ErrNilDevice)
	}

	if countAlignment <= 0 {
		return nil, fmt.Errorf("accelerated/device: alignment %d: %w", countAlignment, accelerated.ErrInvalidAlignment)
	}

	return &Pipeline{device: device, countAlignment: countAlignment}, nil
}

// Device returns the device the pipeline dispatches to.
func (p *Pipeline) Device() Device {
	return p.device
}

// CountAlignment returns the column count alignment of vended matrices.
func (p *Pipeline) CountAlignment() int {
	return p.countAlignment
}

// NewMatrix implements accelerated.Pipeline.
func (p *Pipeline) NewMatrix(rowCount, columnCount int) (*Matrix, error) {
	return NewMatrix(rowCount, columnCount, p.countAlignment, p.device)
}

// Multiply implements accelerated.Pipeline. Inputs are uploaded once, the
// kernel runs 1+repeatCount times and the output is downloaded into its
// staging memory once all runs are done. Only the bytes covered by each
// matrix's current shape are transferred.
func (p *Pipeline) Multiply(data accelerated.MultiplicationData[*Matrix], repeatCount int) error {
	if err := accelerated.Validate(data, repeatCount); err != nil {
		return err
	}

	for _, m := range []*Matrix{data.InputA, data.InputB, data.Output} {
		if m.Device() != p.device {
			return fmt.Errorf("accelerated/device: matrix on %s, pipeline on %s: %w", m.Device().Name(), p.device.Name(), accelerated.ErrIncompatibleDevice)
		}
	}

	if err := data.InputA.DeviceBuffer().Upload(data.InputA.ByteCount()); err != nil {
		return err
	}

	if err := data.InputB.DeviceBuffer().Upload(data.InputB.ByteCount()); err != nil {
		return err
	}

	g := Gemm{
		M:       data.Output.RowCount(),
		N:       data.Output.ColumnCount(),
		K:       data.InputA.RowCount(),
		StrideA: accelerated.Stride(data.InputA),
		StrideB: accelerated.Stride(data.InputB),
		StrideC: accelerated.Stride(data.Output),
	}

	log.Debug().
		Str("device", p.device.Name()).
		Int("m", g.M).
		Int("n", g.N).
		Int("k", g.K).
		Int("repeat", repeatCount).
		Msg("accelerated/device: dispatch")

	a := data.InputA.DeviceBuffer().Allocation()
	b := data.InputB.DeviceBuffer().Allocation()
	c := data.Output.DeviceBuffer().Allocation()

	for i := 0; i <= repeatCount; i++ {
		if err := p.device.MatMulTN(c, a, b, g); err != nil {
			return fmt.Errorf("accelerated/device: failed to run matmul on %s: %w", p.device.Name(), err)
		}
	}

	return data.Output.DeviceBuffer().Download(data.Output.ByteCount())
}

var _ accelerated.Pipeline[*Matrix] = &Pipeline{}
