package accelerated_test

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated"
)

// countingBuffer records Resize calls and can be told to refuse them.
type countingBuffer struct {
	data    []float32
	length  int
	resizes int
	fail    bool
}

func (b *countingBuffer) Bytes() []byte {
	return accelerated.Bytes(b.data)[:b.length]
}

func (b *countingBuffer) Length() int {
	return b.length
}

func (b *countingBuffer) Resize(newLength int) error {
	b.resizes++

	if b.fail || newLength < 0 {
		return fmt.Errorf("countingBuffer: %w", accelerated.ErrAllocation)
	}

	data := make([]float32, (newLength+accelerated.ElementSize-1)/accelerated.ElementSize)
	copy(data, b.data)
	b.data = data
	b.length = newLength

	return nil
}

// shape is a Matrix with dimensions only.
type shape struct {
	rows, cols int
}

func (s shape) RowCount() int       { return s.rows }
func (s shape) ColumnCount() int    { return s.cols }
func (s shape) BytesPerRow() int    { return s.cols * accelerated.ElementSize }
func (s shape) Elements() []float32 { return nil }
