package accelerated_test

import (
	"testing"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/stretchr/testify/require"
)

func TestValidDimensions(t *testing.T) {
	data := accelerated.MultiplicationData[shape]{
		InputA: shape{2, 4},
		InputB: shape{2, 6},
		Output: shape{4, 6},
	}

	require.True(t, data.InputDimensionsValid())
	require.True(t, data.OutputDimensionsValid())
	require.NoError(t, accelerated.Validate(data, 0))
}

func TestInvalidInputDimensions(t *testing.T) {
	data := accelerated.MultiplicationData[shape]{
		InputA: shape{2, 4},
		InputB: shape{3, 6},
		Output: shape{4, 6},
	}

	require.False(t, data.InputDimensionsValid())
	require.True(t, data.OutputDimensionsValid())
}

func TestInvalidOutputDimensions(t *testing.T) {
	data := accelerated.MultiplicationData[shape]{
		InputA: shape{2, 4},
		InputB: shape{2, 6},
		Output: shape{5, 6},
	}

	require.True(t, data.InputDimensionsValid())
	require.False(t, data.OutputDimensionsValid())

	data.Output = shape{4, 5}
	require.False(t, data.OutputDimensionsValid())
}

func TestValidateOrder(t *testing.T) {
	allBad := accelerated.MultiplicationData[shape]{
		InputA: shape{2, 4},
		InputB: shape{3, 6},
		Output: shape{5, 6},
	}
	require.ErrorIs(t, accelerated.Validate(allBad, -1), accelerated.ErrInvalidInputDimensions)

	allBad.InputB = shape{2, 6}
	require.ErrorIs(t, accelerated.Validate(allBad, -1), accelerated.ErrInvalidOutputDimensions)

	allBad.Output = shape{4, 6}
	require.ErrorIs(t, accelerated.Validate(allBad, -1), accelerated.ErrInvalidRepeatCount)
}

func TestMultiplicationDataOverInterface(t *testing.T) {
	buf := &countingBuffer{}
	m, err := accelerated.NewBufferedMatrix(4, 6, 8, buf)
	require.NoError(t, err)

	data := accelerated.MultiplicationData[accelerated.Matrix]{
		InputA: shape{2, 4},
		InputB: shape{2, 6},
		Output: m,
	}
	require.NoError(t, accelerated.Validate(data, 3))
}
