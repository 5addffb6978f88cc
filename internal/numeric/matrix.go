package numeric

import "fmt"

// Matrix is a row-major view over a float32 buffer: row i occupies
// data[i*cols : i*cols+cols]. Transposing a Matrix is O(1): it returns a
// TransposedMatrix descriptor over the same backing data with rows and
// columns swapped, not a copy.
type Matrix struct {
	data []float32
	rows int
	cols int
}

// NewMatrix wraps data (length must equal rows*cols) as a row-major matrix.
func NewMatrix(data []float32, rows, cols int) Matrix {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("numeric: matrix size mismatch rows=%d cols=%d data=%d", rows, cols, len(data)))
	}
	return Matrix{data: data, rows: rows, cols: cols}
}

func (m Matrix) Rows() int { return m.rows }
func (m Matrix) Cols() int { return m.cols }

// Flat returns the whole matrix as one contiguous Slice.
func (m Matrix) Flat() Slice { return Slice(m.data) }

// Row returns a contiguous view of row i.
func (m Matrix) Row(i int) Slice {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("numeric: row out of bounds %d (rows %d)", i, m.rows))
	}
	return Slice(m.data[i*m.cols : i*m.cols+m.cols])
}

// LastRow returns the final row -- used for the bias row in a dense layer.
func (m Matrix) LastRow() Slice { return m.Row(m.rows - 1) }

// Col returns a strided view of column i.
func (m Matrix) Col(i int) StrideSlice {
	if i < 0 || i >= m.cols {
		panic(fmt.Sprintf("numeric: col out of bounds %d (cols %d)", i, m.cols))
	}
	return newStrideSlice(m.data, i, m.cols, m.rows)
}

// SliceRows returns the sub-matrix of len consecutive rows starting at offset.
func (m Matrix) SliceRows(offset, length int) Matrix {
	if offset < 0 || length < 0 || offset+length > m.rows {
		panic(fmt.Sprintf("numeric: slice rows out of bounds offset=%d length=%d rows=%d", offset, length, m.rows))
	}
	return Matrix{data: m.data[offset*m.cols : (offset+length)*m.cols], rows: length, cols: m.cols}
}

// Transpose returns an O(1) transposed view: the returned matrix's rows are
// this matrix's columns, addressed with the original stride.
func (m Matrix) Transpose() TransposedMatrix {
	return TransposedMatrix{data: m.data, rows: m.cols, cols: m.rows, innerStride: m.cols}
}

// TransposedMatrix is the column-major dual of Matrix, produced by
// Matrix.Transpose without copying. Its "rows" are strided views over the
// original matrix's columns; its "columns" are contiguous runs over the
// original matrix's rows.
type TransposedMatrix struct {
	data        []float32
	rows        int
	cols        int
	innerStride int
}

func (m TransposedMatrix) Rows() int { return m.rows }
func (m TransposedMatrix) Cols() int { return m.cols }

// Row returns a strided view of logical row i (a column of the original).
func (m TransposedMatrix) Row(i int) StrideSlice {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("numeric: transposed row out of bounds %d (rows %d)", i, m.rows))
	}
	return newStrideSlice(m.data, i, m.innerStride, m.cols)
}

// Col returns a contiguous view of logical column i (a row of the original).
func (m TransposedMatrix) Col(i int) Slice {
	if i < 0 || i >= m.cols {
		panic(fmt.Sprintf("numeric: transposed col out of bounds %d (cols %d)", i, m.cols))
	}
	return Slice(m.data[i*m.innerStride : i*m.innerStride+m.innerStride])
}

// Transpose returns the original row-major Matrix.
func (m TransposedMatrix) Transpose() Matrix {
	return Matrix{data: m.data, rows: m.cols, cols: m.rows}
}
