package cpu

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/pbnjay/memory"
)

// Buffer is an accelerated.ResizableBuffer in process memory. Storage is kept
// in whole float32 elements so Bytes is always element aligned.
type Buffer struct {
	data   []float32
	length int
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Bytes implements accelerated.Buffer.
func (b *Buffer) Bytes() []byte {
	if b.length == 0 {
		return nil
	}

	return accelerated.Bytes(b.data)[:b.length]
}

// Length implements accelerated.Buffer.
func (b *Buffer) Length() int {
	return b.length
}

// Resize implements accelerated.ResizableBuffer. Shrinking and growing within
// the current capacity reuse the allocation.
func (b *Buffer) Resize(newLength int) error {
	switch {
	case newLength < 0:
		return fmt.Errorf("accelerated/cpu: resize to %d bytes: %w: %w", newLength, accelerated.ErrAllocation, accelerated.ErrInvalidLength)
	case newLength == b.length:
		return nil
	case newLength == 0:
		b.data = nil
		b.length = 0

		return nil
	}

	elements := (newLength + accelerated.ElementSize - 1) / accelerated.ElementSize
	if elements <= cap(b.data) {
		b.data = b.data[:elements]
		b.length = newLength

		return nil
	}

	if total := memory.TotalMemory(); total > 0 && uint64(newLength) > total {
		return fmt.Errorf("accelerated/cpu: resize to %d bytes exceeds %d bytes of system memory: %w", newLength, total, accelerated.ErrAllocation)
	}

	data := make([]float32, elements)
	copy(data, b.data)

	b.data = data
	b.length = newLength

	return nil
}

var _ accelerated.ResizableBuffer = &Buffer{}
