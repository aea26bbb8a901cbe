package accelerated

import "errors"

var (
	// ErrInvalidInputDimensions is returned when the operands disagree on the
	// contraction dimension (inputA.RowCount != inputB.RowCount).
	ErrInvalidInputDimensions = errors.New("accelerated: invalid input dimensions")

	// ErrInvalidOutputDimensions is returned when the output is not
	// columns(A) x columns(B).
	ErrInvalidOutputDimensions = errors.New("accelerated: invalid output dimensions")

	// ErrInvalidRepeatCount is returned for a negative repeat count.
	ErrInvalidRepeatCount = errors.New("accelerated: invalid repeat count")

	// ErrIncompatibleDevice is returned when an operand lives on a different
	// device than the pipeline.
	ErrIncompatibleDevice = errors.New("accelerated: incompatible device")

	// ErrAllocation marks every failure to create, resize or reshape memory.
	ErrAllocation = errors.New("accelerated: allocation failed")

	ErrInvalidLength    = errors.New("accelerated: invalid buffer length")
	ErrInvalidAlignment = errors.New("accelerated: invalid count alignment")
	ErrNilDevice        = errors.New("accelerated: nil device")
)
