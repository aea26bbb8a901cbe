package accelerated

// ElementSize is the size in bytes of a matrix element (IEEE-754 single precision).
const ElementSize = 4

// PadCount rounds count up to the next multiple of alignment. It reports false
// when either argument is not positive.
func PadCount(count, alignment int) (int, bool) {
	if count <= 0 || alignment <= 0 {
		return 0, false
	}

	remainder := count % alignment
	if remainder == 0 {
		return count, true
	}

	return count + alignment - remainder, true
}

// BytesPerRow returns the row stride of a rowCount x columnCount matrix whose
// rows are padded to columnCountAlignment elements. CPU and device matrices
// share this layout, so buffers are interchangeable at the same alignment.
func BytesPerRow(rowCount, columnCount, columnCountAlignment int) (int, bool) {
	if rowCount <= 0 {
		return 0, false
	}

	columnsPerRow, ok := PadCount(columnCount, columnCountAlignment)
	if !ok {
		return 0, false
	}

	return columnsPerRow * ElementSize, true
}
