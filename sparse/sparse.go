// Package sparse provides real sparse matrices tagged with a storage format.
//
// Entries are kept once, as coordinates sorted by row then column, with
// duplicates summed and zeros dropped. The Format tag records which layout
// the matrix was built from or converted to; the compressed views (CSR, CSC,
// DIA, BSR) are derived from the coordinates on demand.
package sparse

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned for inconsistent dimensions, index arrays or
	// out-of-range coordinates.
	ErrShape = errors.New("sparse: invalid shape")

	// ErrFormat is returned for an unknown storage format.
	ErrFormat = errors.New("sparse: unknown format")
)

// Format names a sparse storage layout.
type Format string

const (
	CSC Format = "csc"
	CSR Format = "csr"
	BSR Format = "bsr"
	DIA Format = "dia"
	COO Format = "coo"
)

// Formats lists every storage format in extension order.
var Formats = []Format{CSC, CSR, BSR, DIA, COO}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// Matrix is an immutable real sparse matrix. It implements mat.Matrix.
type Matrix struct {
	rows, cols int
	format     Format
	row, col   []int
	data       []float64
}

var _ mat.Matrix = (*Matrix)(nil)

// NewCOO builds a matrix from coordinate triplets.
func NewCOO(rows, cols int, row, col []int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}
	if len(row) != len(data) || len(col) != len(data) {
		return nil, fmt.Errorf("%w: %d rows, %d cols, %d values", ErrShape, len(row), len(col), len(data))
	}
	for k := range data {
		if row[k] < 0 || row[k] >= rows || col[k] < 0 || col[k] >= cols {
			return nil, fmt.Errorf("%w: entry (%d, %d) outside %dx%d", ErrShape, row[k], col[k], rows, cols)
		}
	}
	return canonical(rows, cols, COO, row, col, data), nil
}

// canonical sorts, sums duplicates and drops zeros. Inputs are not modified.
func canonical(rows, cols int, format Format, row, col []int, data []float64) *Matrix {
	order := make([]int, len(data))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if row[i] != row[j] {
			return row[i] < row[j]
		}
		return col[i] < col[j]
	})

	m := &Matrix{rows: rows, cols: cols, format: format}
	for _, k := range order {
		n := len(m.data)
		if n > 0 && m.row[n-1] == row[k] && m.col[n-1] == col[k] {
			m.data[n-1] += data[k]
			continue
		}
		m.row = append(m.row, row[k])
		m.col = append(m.col, col[k])
		m.data = append(m.data, data[k])
	}

	kept := 0
	for k, v := range m.data {
		if v == 0 {
			continue
		}
		m.row[kept], m.col[kept], m.data[kept] = m.row[k], m.col[k], v
		kept++
	}
	m.row, m.col, m.data = m.row[:kept], m.col[:kept], m.data[:kept]
	return m
}

// FromMatrix scans a dense matrix into the given format.
func FromMatrix(a mat.Matrix, format Format) (*Matrix, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	r, c := a.Dims()
	var row, col []int
	var data []float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); v != 0 {
				row = append(row, i)
				col = append(col, j)
				data = append(data, v)
			}
		}
	}
	return &Matrix{rows: r, cols: c, format: format, row: row, col: col, data: data}, nil
}

// As returns the matrix tagged with format. Entries are shared.
func (m *Matrix) As(format Format) (*Matrix, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if format == m.format {
		return m, nil
	}
	out := *m
	out.format = format
	return &out, nil
}

func (m *Matrix) Format() Format { return m.format }

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (r, c int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return len(m.data) }

// At returns the element at row i, column j. It panics when out of range,
// as gonum matrices do.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= m.cols {
		panic(mat.ErrColAccess)
	}
	k := sort.Search(len(m.data), func(k int) bool {
		return m.row[k] > i || (m.row[k] == i && m.col[k] >= j)
	})
	if k < len(m.data) && m.row[k] == i && m.col[k] == j {
		return m.data[k]
	}
	return 0
}

// T returns the implicit transpose.
func (m *Matrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// Transpose returns an explicit transpose in the same format.
func (m *Matrix) Transpose() *Matrix {
	return canonical(m.cols, m.rows, m.format, m.col, m.row, m.data)
}

// Dense copies the matrix into a gonum dense matrix. A matrix with a zero
// dimension yields an empty Dense.
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	for k, v := range m.data {
		d.Set(m.row[k], m.col[k], v)
	}
	return d
}

// Entries calls fn for every stored entry in row-major order.
func (m *Matrix) Entries(fn func(i, j int, v float64)) {
	for k, v := range m.data {
		fn(m.row[k], m.col[k], v)
	}
}

// IsSymmetric reports whether m is square and equals its transpose.
func (m *Matrix) IsSymmetric() bool {
	return m.rows == m.cols && EqualApprox(m, m.Transpose(), 0)
}

// IsSkewSymmetric reports whether m is square and equals minus its transpose.
func (m *Matrix) IsSkewSymmetric() bool {
	if m.rows != m.cols || m.NNZ() == 0 {
		return false
	}
	t := m.Transpose()
	for k := range m.data {
		if m.row[k] == m.col[k] || t.row[k] != m.row[k] || t.col[k] != m.col[k] || t.data[k] != -m.data[k] {
			return false
		}
	}
	return true
}

// EqualApprox reports whether a and b have the same dimensions and every
// element pair is within tol, absolute or relative. Formats are ignored.
func EqualApprox(a, b *Matrix, tol float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	i, j := 0, 0
	for i < len(a.data) || j < len(b.data) {
		var x, y float64
		switch cmp := compareAt(a, i, b, j); {
		case cmp < 0:
			x = a.data[i]
			i++
		case cmp > 0:
			y = b.data[j]
			j++
		default:
			x, y = a.data[i], b.data[j]
			i++
			j++
		}
		if !scalar.EqualWithinAbsOrRel(x, y, tol, tol) {
			return false
		}
	}
	return true
}

// compareAt orders entry i of a against entry j of b; exhausted sides sort last.
func compareAt(a *Matrix, i int, b *Matrix, j int) int {
	switch {
	case i >= len(a.data):
		return 1
	case j >= len(b.data):
		return -1
	case a.row[i] != b.row[j]:
		return a.row[i] - b.row[j]
	default:
		return a.col[i] - b.col[j]
	}
}

func (m *Matrix) String() string {
	return fmt.Sprintf("sparse(%dx%d, %s, nnz=%d)", m.rows, m.cols, m.format, m.NNZ())
}
