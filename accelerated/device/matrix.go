package device

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated"
)

// Matrix is a reshapeable matrix in device memory.
type Matrix struct {
	*accelerated.ResizableBufferedMatrix

	buffer *Buffer
}

// NewMatrix allocates a matrix on device. Use Pipeline.NewMatrix to get a
// matrix that is guaranteed to be compatible with a pipeline.
func NewMatrix(rowCount, columnCount, countAlignment int, device Device) (*Matrix, error) {
	buffer, err := NewBuffer(device)
	if err != nil {
		return nil, err
	}

	m, err := accelerated.NewResizableBufferedMatrix(rowCount, columnCount, countAlignment, buffer)
	if err != nil {
		return nil, err
	}

	return &Matrix{ResizableBufferedMatrix: m, buffer: buffer}, nil
}

// Device returns the device the matrix is allocated on.
func (m *Matrix) Device() Device {
	return m.buffer.Device()
}

// Release frees the device memory and leaves a 0x0 matrix. Reshape allocates
// again.
func (m *Matrix) Release() error {
	if err := m.ResizableBufferedMatrix.Release(); err != nil {
		return fmt.Errorf("accelerated/device: release on %s: %w", m.Device().Name(), err)
	}

	return nil
}

// DeviceBuffer returns the device buffer backing the matrix.
func (m *Matrix) DeviceBuffer() *Buffer {
	return m.buffer
}
