package accelerated

import "unsafe"

// Buffer is a contiguous block of raw memory. A zero length means there is no
// backing allocation and Bytes returns nil.
type Buffer interface {
	Bytes() []byte
	Length() int
}

// ResizableBuffer is a Buffer whose length can change.
//
// On success the length is exactly newLength and bytes [0, min(old, new)) are
// preserved. Bytes past the old length are unspecified, not zeroed. On failure
// the returned error wraps ErrAllocation and the buffer is left as it was.
// Resize(0) releases the allocation and always succeeds.
//
// Implementations are free to make growth more expensive than shrinking; the
// device buffer reallocates and copies on every length change.
type ResizableBuffer interface {
	Buffer
	Resize(newLength int) error
}

// Float32s reinterprets b as a slice of float32 elements. Trailing bytes that
// do not fill a whole element are dropped.
func Float32s(b []byte) []float32 {
	if len(b) < ElementSize {
		return nil
	}

	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/ElementSize)
}

// Bytes reinterprets f as raw bytes.
func Bytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(f))), len(f)*ElementSize)
}
