package device

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated"
	"github.com/rs/zerolog/log"
)

// Buffer is an accelerated.ResizableBuffer in device memory.
//
// The buffer keeps a host staging copy of the same length, returned by Bytes.
// Host code reads and writes the staging copy; Upload and Download move a
// prefix of it to and from the device. Device memory cannot be resized in place, so every
// length change allocates a new block, copies the retained prefix into it and
// releases the old one. Growth is therefore as expensive as a full copy.
type Buffer struct {
	device     Device
	allocation Allocation
	staging    []float32
}

func NewBuffer(device Device) (*Buffer, error) {
	if device == nil {
		return nil, fmt.Errorf("accelerated/device: %w", accelerated.ErrNilDevice)
	}

	return &Buffer{device: device}, nil
}

// Device returns the device the buffer allocates on.
func (b *Buffer) Device() Device {
	return b.device
}

// Allocation returns the current device block, nil when the length is 0.
func (b *Buffer) Allocation() Allocation {
	return b.allocation
}

// Bytes implements accelerated.Buffer.
func (b *Buffer) Bytes() []byte {
	return accelerated.Bytes(b.staging)
}

// Length implements accelerated.Buffer.
func (b *Buffer) Length() int {
	return len(b.staging) * accelerated.ElementSize
}

// Resize implements accelerated.ResizableBuffer. Lengths must be a multiple
// of the element size.
func (b *Buffer) Resize(newLength int) error {
	if newLength < 0 || newLength%accelerated.ElementSize != 0 {
		return fmt.Errorf("accelerated/device: resize to %d bytes: %w: %w", newLength, accelerated.ErrAllocation, accelerated.ErrInvalidLength)
	}

	if newLength == b.Length() {
		return nil
	}

	if newLength == 0 {
		b.release()
		return nil
	}

	elements := newLength / accelerated.ElementSize

	allocation, err := b.device.Allocate(elements)
	if err != nil {
		return fmt.Errorf("accelerated/device: failed to allocate %d bytes on %s: %w: %w", newLength, b.device.Name(), accelerated.ErrAllocation, err)
	}

	staging := make([]float32, elements)

	if b.allocation != nil {
		copy(staging, b.staging)

		if err := allocation.Upload(staging); err != nil {
			allocation.Release()
			return fmt.Errorf("accelerated/device: failed to copy %d bytes on %s: %w: %w", newLength, b.device.Name(), accelerated.ErrAllocation, err)
		}

		log.Debug().
			Str("device", b.device.Name()).
			Int("from", b.Length()).
			Int("to", newLength).
			Msg("accelerated/device: reallocated buffer")

		b.allocation.Release()
	}

	b.allocation = allocation
	b.staging = staging

	return nil
}

// Upload copies the first byteCount bytes of the staging memory to the device.
func (b *Buffer) Upload(byteCount int) error {
	n, err := b.transferLength(byteCount)
	if err != nil || n == 0 {
		return err
	}

	if err := b.allocation.Upload(b.staging[:n]); err != nil {
		return fmt.Errorf("accelerated/device: failed to upload %d bytes: %w", byteCount, err)
	}

	return nil
}

// Download copies the first byteCount bytes of device memory into the staging
// memory.
func (b *Buffer) Download(byteCount int) error {
	n, err := b.transferLength(byteCount)
	if err != nil || n == 0 {
		return err
	}

	if err := b.allocation.Download(b.staging[:n]); err != nil {
		return fmt.Errorf("accelerated/device: failed to download %d bytes: %w", byteCount, err)
	}

	return nil
}

func (b *Buffer) transferLength(byteCount int) (int, error) {
	if byteCount < 0 || byteCount > b.Length() || byteCount%accelerated.ElementSize != 0 {
		return 0, fmt.Errorf("accelerated/device: transfer of %d bytes from a %d byte buffer: %w", byteCount, b.Length(), accelerated.ErrInvalidLength)
	}

	return byteCount / accelerated.ElementSize, nil
}

func (b *Buffer) release() {
	if b.allocation != nil {
		b.allocation.Release()
	}

	b.allocation = nil
	b.staging = nil
}

var _ accelerated.ResizableBuffer = &Buffer{}
