package accelerated_test

import (
	"testing"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/stretchr/testify/require"
)

func TestPadCount(t *testing.T) {
	for count := 1; count <= 64; count++ {
		for alignment := 1; alignment <= 16; alignment++ {
			padded, ok := accelerated.PadCount(count, alignment)
			require.True(t, ok)
			require.Zero(t, padded%alignment, "count %d alignment %d", count, alignment)
			require.GreaterOrEqual(t, padded, count)
			require.Less(t, padded-count, alignment)
		}
	}
}

func TestPadCountAlreadyAligned(t *testing.T) {
	padded, ok := accelerated.PadCount(16, 8)
	require.True(t, ok)
	require.Equal(t, 16, padded)
}

func TestPadCountInvalid(t *testing.T) {
	for _, tc := range []struct{ count, alignment int }{
		{0, 8}, {-1, 8}, {4, 0}, {4, -8}, {0, 0},
	} {
		_, ok := accelerated.PadCount(tc.count, tc.alignment)
		require.False(t, ok, "count %d alignment %d", tc.count, tc.alignment)
	}
}

func TestBytesPerRow(t *testing.T) {
	bytesPerRow, ok := accelerated.BytesPerRow(4, 4, 8)
	require.True(t, ok)
	require.Equal(t, 32, bytesPerRow)

	bytesPerRow, ok = accelerated.BytesPerRow(1, 9, 8)
	require.True(t, ok)
	require.Equal(t, 64, bytesPerRow)

	bytesPerRow, ok = accelerated.BytesPerRow(3, 5, 1)
	require.True(t, ok)
	require.Equal(t, 20, bytesPerRow)
}

func TestBytesPerRowInvalid(t *testing.T) {
	_, ok := accelerated.BytesPerRow(0, 4, 8)
	require.False(t, ok)

	_, ok = accelerated.BytesPerRow(4, 0, 8)
	require.False(t, ok)

	_, ok = accelerated.BytesPerRow(4, 4, 0)
	require.False(t, ok)
}

func TestFloat32sRoundTrip(t *testing.T) {
	f := []float32{1, 2, 3}
	b := accelerated.Bytes(f)
	require.Len(t, b, 12)

	view := accelerated.Float32s(b)
	view[1] = 42
	require.Equal(t, float32(42), f[1])

	require.Nil(t, accelerated.Float32s(nil))
	require.Nil(t, accelerated.Bytes(nil))
}
