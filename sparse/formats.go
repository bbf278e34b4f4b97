package sparse

import (
	"fmt"
	"slices"
)

// checkCompressed validates a compressed index structure with major
// dimension n and minor dimension minor.
func checkCompressed(n, minor int, indptr, indices []int, nvals int) error {
	if len(indptr) != n+1 {
		return fmt.Errorf("%w: indptr has %d entries, want %d", ErrShape, len(indptr), n+1)
	}
	if indptr[0] != 0 || indptr[n] != len(indices) || len(indices) != nvals {
		return fmt.Errorf("%w: indptr spans %d..%d over %d indices and %d values",
			ErrShape, indptr[0], indptr[n], len(indices), nvals)
	}
	for k := 0; k < n; k++ {
		if indptr[k] > indptr[k+1] {
			return fmt.Errorf("%w: indptr decreases at %d", ErrShape, k)
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= minor {
			return fmt.Errorf("%w: index %d outside 0..%d", ErrShape, idx, minor-1)
		}
	}
	return nil
}

// expand turns compressed pointers into explicit major indices.
func expand(indptr []int) []int {
	major := make([]int, indptr[len(indptr)-1])
	for k := 0; k+1 < len(indptr); k++ {
		for p := indptr[k]; p < indptr[k+1]; p++ {
			major[p] = k
		}
	}
	return major
}

// NewCSR builds a matrix from compressed sparse row arrays.
func NewCSR(rows, cols int, indptr, indices []int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if err := checkCompressed(rows, cols, indptr, indices, len(data)); err != nil {
		return nil, err
	}
	return canonical(rows, cols, CSR, expand(indptr), indices, data), nil
}

// NewCSC builds a matrix from compressed sparse column arrays.
func NewCSC(rows, cols int, indptr, indices []int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if err := checkCompressed(cols, rows, indptr, indices, len(data)); err != nil {
		return nil, err
	}
	return canonical(rows, cols, CSC, indices, expand(indptr), data), nil
}

// NewBSR builds a matrix from block sparse row arrays. blocks holds the
// R×C blocks back to back, each in row-major order.
func NewBSR(rows, cols, r, c int, indptr, indices []int, blocks []float64) (*Matrix, error) {
	if r <= 0 || c <= 0 || rows < 0 || cols < 0 || rows%r != 0 || cols%c != 0 {
		return nil, fmt.Errorf("%w: %dx%d with %dx%d blocks", ErrShape, rows, cols, r, c)
	}
	if len(blocks) != len(indices)*r*c {
		return nil, fmt.Errorf("%w: %d block values for %d blocks of %dx%d", ErrShape, len(blocks), len(indices), r, c)
	}
	if err := checkCompressed(rows/r, cols/c, indptr, indices, len(indices)); err != nil {
		return nil, err
	}

	brow := expand(indptr)
	row := make([]int, 0, len(blocks))
	col := make([]int, 0, len(blocks))
	for b, bcol := range indices {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				row = append(row, brow[b]*r+i)
				col = append(col, bcol*c+j)
			}
		}
	}
	return canonical(rows, cols, BSR, row, col, blocks), nil
}

// NewDIA builds a matrix from diagonal storage. data[k][j] holds the
// element at row j-offsets[k], column j; each row of data has cols entries.
func NewDIA(rows, cols int, offsets []int, data [][]float64) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if len(offsets) != len(data) {
		return nil, fmt.Errorf("%w: %d offsets for %d diagonals", ErrShape, len(offsets), len(data))
	}
	var row, col []int
	var vals []float64
	for k, off := range offsets {
		if len(data[k]) > cols {
			return nil, fmt.Errorf("%w: diagonal %d has %d entries for %d columns", ErrShape, off, len(data[k]), cols)
		}
		for j, v := range data[k] {
			i := j - off
			if i < 0 || i >= rows || v == 0 {
				continue
			}
			row = append(row, i)
			col = append(col, j)
			vals = append(vals, v)
		}
	}
	return canonical(rows, cols, DIA, row, col, vals), nil
}

// COO returns copies of the coordinate arrays in row-major order.
func (m *Matrix) COO() (row, col []int, data []float64) {
	return slices.Clone(m.row), slices.Clone(m.col), slices.Clone(m.data)
}

// CSR returns compressed sparse row arrays.
func (m *Matrix) CSR() (indptr, indices []int, data []float64) {
	indptr = make([]int, m.rows+1)
	for _, i := range m.row {
		indptr[i+1]++
	}
	for i := 0; i < m.rows; i++ {
		indptr[i+1] += indptr[i]
	}
	return indptr, slices.Clone(m.col), slices.Clone(m.data)
}

// CSC returns compressed sparse column arrays with rows sorted within
// each column.
func (m *Matrix) CSC() (indptr, indices []int, data []float64) {
	indptr = make([]int, m.cols+1)
	for _, j := range m.col {
		indptr[j+1]++
	}
	for j := 0; j < m.cols; j++ {
		indptr[j+1] += indptr[j]
	}

	next := slices.Clone(indptr[:m.cols])
	indices = make([]int, len(m.data))
	data = make([]float64, len(m.data))
	// Row-major input keeps rows ascending inside each column.
	for k, j := range m.col {
		p := next[j]
		indices[p] = m.row[k]
		data[p] = m.data[k]
		next[j]++
	}
	return indptr, indices, data
}

// BSR returns block sparse row arrays with 1×1 blocks.
func (m *Matrix) BSR() (r, c int, indptr, indices []int, blocks []float64) {
	indptr, indices, blocks = m.CSR()
	return 1, 1, indptr, indices, blocks
}

// DIA returns diagonal storage: offsets in ascending order and, per
// offset, a row of cols values indexed by column.
func (m *Matrix) DIA() (offsets []int, data [][]float64) {
	seen := make(map[int]bool)
	for k := range m.data {
		off := m.col[k] - m.row[k]
		if !seen[off] {
			seen[off] = true
			offsets = append(offsets, off)
		}
	}
	slices.Sort(offsets)

	index := make(map[int]int, len(offsets))
	data = make([][]float64, len(offsets))
	for k, off := range offsets {
		index[off] = k
		data[k] = make([]float64, m.cols)
	}
	for k, v := range m.data {
		data[index[m.col[k]-m.row[k]]][m.col[k]] = v
	}
	return offsets, data
}
