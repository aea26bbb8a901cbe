package accelerated

import "fmt"

// Matrix is a row-major view of single precision elements. Row i starts at
// element i*BytesPerRow()/ElementSize of Elements().
type Matrix interface {
	RowCount() int
	ColumnCount() int
	BytesPerRow() int
	Elements() []float32
}

// ResizableMatrix is a Matrix whose logical dimensions can change in place.
type ResizableMatrix interface {
	Matrix
	Reshape(rowCount, columnCount int) error
}

// Stride returns the leading dimension of m in elements.
func Stride(m Matrix) int {
	return m.BytesPerRow() / ElementSize
}

// BufferedMatrix is a Matrix stored in a ResizableBuffer with rows padded to
// a fixed column count alignment.
type BufferedMatrix struct {
	rowCount             int
	columnCount          int
	bytesPerRow          int
	columnCountAlignment int

	buffer ResizableBuffer
}

// NewBufferedMatrix sizes buffer to hold rowCount x columnCount elements with
// rows padded to columnCountAlignment elements.
//
// A matrix is returned fully formed or not at all. The error wraps
// ErrAllocation when the layout is invalid or the buffer cannot be resized; in
// either case buffer is left as it was.
func NewBufferedMatrix(rowCount, columnCount, columnCountAlignment int, buffer ResizableBuffer) (*BufferedMatrix, error) {
	bytesPerRow, ok := BytesPerRow(rowCount, columnCount, columnCountAlignment)
	if !ok {
		return nil, fmt.Errorf("%w: invalid layout %dx%d aligned to %d", ErrAllocation, rowCount, columnCount, columnCountAlignment)
	}

	if err := buffer.Resize(rowCount * bytesPerRow); err != nil {
		return nil, fmt.Errorf("accelerated: failed to size %dx%d matrix: %w", rowCount, columnCount, err)
	}

	m := &BufferedMatrix{
		rowCount:             rowCount,
		columnCount:          columnCount,
		bytesPerRow:          bytesPerRow,
		columnCountAlignment: columnCountAlignment,
		buffer:               buffer,
	}

	return m, nil
}

func (m *BufferedMatrix) RowCount() int    { return m.rowCount }
func (m *BufferedMatrix) ColumnCount() int { return m.columnCount }
func (m *BufferedMatrix) BytesPerRow() int { return m.bytesPerRow }

// ColumnCountAlignment returns the padding granularity in elements.
func (m *BufferedMatrix) ColumnCountAlignment() int { return m.columnCountAlignment }

// PaddedColumnCount returns the number of elements between consecutive rows.
func (m *BufferedMatrix) PaddedColumnCount() int { return m.bytesPerRow / ElementSize }

// Buffer returns the backing buffer.
func (m *BufferedMatrix) Buffer() ResizableBuffer { return m.buffer }

// ByteCount returns rowCount * bytesPerRow. It panics if the backing buffer is
// shorter, which can only happen through a bug in a buffer implementation.
func (m *BufferedMatrix) ByteCount() int {
	result := m.rowCount * m.bytesPerRow
	if m.buffer.Length() < result {
		panic(fmt.Sprintf("accelerated: matrix needs %d bytes, buffer holds %d", result, m.buffer.Length()))
	}

	return result
}

// Elements returns the matrix storage, padding included.
func (m *BufferedMatrix) Elements() []float32 {
	return Float32s(m.buffer.Bytes()[:m.ByteCount()])
}

// Row returns the logical columns of row i.
func (m *BufferedMatrix) Row(i int) []float32 {
	if i < 0 || i >= m.rowCount {
		panic(fmt.Sprintf("accelerated: row %d out of range [0,%d)", i, m.rowCount))
	}

	start := i * m.PaddedColumnCount()

	return m.Elements()[start : start+m.columnCount]
}

// Release empties the backing buffer and leaves a 0x0 matrix. A resizable
// matrix can be reshaped back to a real size afterwards.
func (m *BufferedMatrix) Release() error {
	if err := m.buffer.Resize(0); err != nil {
		return fmt.Errorf("accelerated: failed to release %dx%d matrix: %w", m.rowCount, m.columnCount, err)
	}

	m.rowCount = 0
	m.columnCount = 0
	m.bytesPerRow = 0

	return nil
}

// ResizableBufferedMatrix is a BufferedMatrix that can be reshaped. The
// alignment is fixed at construction.
type ResizableBufferedMatrix struct {
	BufferedMatrix
}

// NewResizableBufferedMatrix is NewBufferedMatrix for a reshapeable matrix.
func NewResizableBufferedMatrix(rowCount, columnCount, columnCountAlignment int, buffer ResizableBuffer) (*ResizableBufferedMatrix, error) {
	m, err := NewBufferedMatrix(rowCount, columnCount, columnCountAlignment, buffer)
	if err != nil {
		return nil, err
	}

	return &ResizableBufferedMatrix{BufferedMatrix: *m}, nil
}

// Reshape changes the logical dimensions of the matrix. The buffer is only
// resized when it is too small for the new shape; shrinking keeps the existing
// allocation so that later growth back to it is free. On error the matrix and
// its buffer are unchanged.
func (m *ResizableBufferedMatrix) Reshape(rowCount, columnCount int) error {
	if rowCount == m.rowCount && columnCount == m.columnCount {
		return nil
	}

	bytesPerRow, ok := BytesPerRow(rowCount, columnCount, m.columnCountAlignment)
	if !ok {
		return fmt.Errorf("%w: invalid layout %dx%d aligned to %d", ErrAllocation, rowCount, columnCount, m.columnCountAlignment)
	}

	byteCount := rowCount * bytesPerRow
	if m.buffer.Length() < byteCount {
		if err := m.buffer.Resize(byteCount); err != nil {
			return fmt.Errorf("accelerated: failed to reshape to %dx%d: %w", rowCount, columnCount, err)
		}
	}

	m.rowCount = rowCount
	m.columnCount = columnCount
	m.bytesPerRow = bytesPerRow

	return nil
}

var (
	_ Matrix          = &BufferedMatrix{}
	_ ResizableMatrix = &ResizableBufferedMatrix{}
)
