package array

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// From converts v to an Array. It accepts *Array, mat.Vector, mat.Matrix,
// mat.CMatrix, []int, []int64, []float64, []complex128, [][]float64 and
// [][]complex128. Slices are copied.
func From(v any) (*Array, error) {
	switch v := v.(type) {
	case *Array:
		if v == nil {
			return nil, fmt.Errorf("%w: nil array", ErrUnsupported)
		}
		return v, nil
	case mat.Vector:
		return FromVector(v), nil
	case mat.Matrix:
		return FromMatrix(v), nil
	case mat.CMatrix:
		return FromCMatrix(v), nil
	case []int:
		data := make([]int64, len(v))
		for i, x := range v {
			data[i] = int64(x)
		}
		return NewInt64([]int{len(v)}, data)
	case []int64:
		return NewInt64([]int{len(v)}, slices.Clone(v))
	case []float64:
		return NewFloat64([]int{len(v)}, slices.Clone(v))
	case []complex128:
		return NewComplex128([]int{len(v)}, slices.Clone(v))
	case [][]float64:
		data, cols, err := flatten(v)
		if err != nil {
			return nil, err
		}
		return NewFloat64([]int{len(v), cols}, data)
	case [][]complex128:
		data, cols, err := flatten(v)
		if err != nil {
			return nil, err
		}
		return NewComplex128([]int{len(v), cols}, data)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

func flatten[T any](rows [][]T) ([]T, int, error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}
	cols := len(rows[0])
	data := make([]T, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return data, cols, nil
}

// FromMatrix copies m into a 2-D Float64 array.
func FromMatrix(m mat.Matrix) *Array {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return &Array{shape: []int{r, c}, dtype: Float64, floats: data}
}

// FromVector copies v into a 1-D Float64 array.
func FromVector(v mat.Vector) *Array {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return &Array{shape: []int{len(data)}, dtype: Float64, floats: data}
}

// FromCMatrix copies m into a 2-D Complex128 array.
func FromCMatrix(m mat.CMatrix) *Array {
	r, c := m.Dims()
	data := make([]complex128, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return &Array{shape: []int{r, c}, dtype: Complex128, complexes: data}
}

// matrixDims maps a 1-D array to a column and a 2-D array to itself.
func (a *Array) matrixDims() (int, int, error) {
	switch len(a.shape) {
	case 1:
		if a.shape[0] == 0 {
			break
		}
		return a.shape[0], 1, nil
	case 2:
		if a.shape[0] == 0 || a.shape[1] == 0 {
			break
		}
		return a.shape[0], a.shape[1], nil
	}
	return 0, 0, fmt.Errorf("%w: %v is not a non-empty 1-D or 2-D shape", ErrShape, a.shape)
}

// Dense copies a real 1-D or 2-D array into a gonum matrix. 1-D arrays
// become a single column.
func (a *Array) Dense() (*mat.Dense, error) {
	if a.dtype == Complex128 {
		return nil, fmt.Errorf("%w: complex array to real matrix", ErrDType)
	}
	r, c, err := a.matrixDims()
	if err != nil {
		return nil, err
	}
	f, err := a.Astype(Float64)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, f.floats), nil
}

// CDense copies a 1-D or 2-D array into a gonum complex matrix.
func (a *Array) CDense() (*mat.CDense, error) {
	r, c, err := a.matrixDims()
	if err != nil {
		return nil, err
	}
	z, err := a.Astype(Complex128)
	if err != nil {
		return nil, err
	}
	return mat.NewCDense(r, c, z.complexes), nil
}

// EqualApprox reports whether a and b have the same shape and elements
// equal within tol. Two Int64 arrays must match exactly.
func EqualApprox(a, b *Array, tol float64) bool {
	if !slices.Equal(a.shape, b.shape) {
		return false
	}
	switch {
	case a.dtype == Int64 && b.dtype == Int64:
		return slices.Equal(a.ints, b.ints)
	case a.dtype == Complex128 || b.dtype == Complex128:
		za, _ := a.Astype(Complex128)
		zb, _ := b.Astype(Complex128)
		return cmplxs.EqualApprox(za.complexes, zb.complexes, tol)
	default:
		fa, _ := a.Astype(Float64)
		fb, _ := b.Astype(Float64)
		return floats.EqualApprox(fa.floats, fb.floats, tol)
	}
}
