package accelerated

// MultiplicationData groups the operands of
//
//	Output = InputAᵗ · InputB
//
// over one matrix type.
type MultiplicationData[M Matrix] struct {
	InputA M
	InputB M
	Output M
}

// InputDimensionsValid reports whether both inputs share the contraction dimension.
func (d MultiplicationData[M]) InputDimensionsValid() bool {
	return d.InputA.RowCount() == d.InputB.RowCount()
}

// OutputDimensionsValid reports whether Output is columns(A) x columns(B).
func (d MultiplicationData[M]) OutputDimensionsValid() bool {
	return d.Output.RowCount() == d.InputA.ColumnCount() &&
		d.Output.ColumnCount() == d.InputB.ColumnCount()
}

// Validate returns the first problem with data and repeatCount, checked in the
// order input dimensions, output dimensions, repeat count.
func Validate[M Matrix](data MultiplicationData[M], repeatCount int) error {
	switch {
	case !data.InputDimensionsValid():
		return ErrInvalidInputDimensions
	case !data.OutputDimensionsValid():
		return ErrInvalidOutputDimensions
	case repeatCount < 0:
		return ErrInvalidRepeatCount
	}

	return nil
}
