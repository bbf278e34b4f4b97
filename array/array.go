// Package array provides N-dimensional numeric arrays in row-major order.
//
// An Array holds int64, float64 or complex128 elements in one flat slice.
// A zero-length shape is a scalar with one element.
package array

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrShape is returned when data length and shape disagree, or a shape
	// has a negative dimension.
	ErrShape = errors.New("array: invalid shape")

	// ErrDType is returned for an operation the element type cannot support.
	ErrDType = errors.New("array: unsupported dtype")

	// ErrUnsupported is returned by From for values it cannot convert.
	ErrUnsupported = errors.New("array: unsupported value")
)

// DType is the element type of an Array.
type DType int

const (
	Int64 DType = iota
	Float64
	Complex128
)

func (d DType) String() string {
	switch d {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// Array is a dense N-d array. Exactly one of the data slices is in use,
// chosen by dtype.
type Array struct {
	shape     []int
	dtype     DType
	ints      []int64
	floats    []float64
	complexes []complex128
}

// Size returns the element count of shape. A count that does not fit in an
// int is an ErrShape.
func Size(shape []int) (int, error) {
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrShape, shape)
		}
		if d == 0 {
			return 0, nil
		}
	}
	n := 1
	for _, d := range shape {
		if n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: %v overflows the element count", ErrShape, shape)
		}
		n *= d
	}
	return n, nil
}

func checkShape(shape []int, n int) error {
	size, err := Size(shape)
	if err != nil {
		return err
	}
	if size != n {
		return fmt.Errorf("%w: %d elements do not fill %v", ErrShape, n, shape)
	}
	return nil
}

// NewInt64 wraps data with the given shape. The slice is not copied.
func NewInt64(shape []int, data []int64) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{shape: slices.Clone(shape), dtype: Int64, ints: data}, nil
}

// NewFloat64 wraps data with the given shape. The slice is not copied.
func NewFloat64(shape []int, data []float64) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{shape: slices.Clone(shape), dtype: Float64, floats: data}, nil
}

// NewComplex128 wraps data with the given shape. The slice is not copied.
func NewComplex128(shape []int, data []complex128) (*Array, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Array{shape: slices.Clone(shape), dtype: Complex128, complexes: data}, nil
}

// Zeros allocates a zero-filled array.
func Zeros(dtype DType, shape ...int) (*Array, error) {
	n, err := Size(shape)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Int64:
		return NewInt64(shape, make([]int64, n))
	case Float64:
		return NewFloat64(shape, make([]float64, n))
	case Complex128:
		return NewComplex128(shape, make([]complex128, n))
	default:
		return nil, fmt.Errorf("%w: %v", ErrDType, dtype)
	}
}

func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.shape) }

// Len returns the number of elements.
func (a *Array) Len() int {
	switch a.dtype {
	case Int64:
		return len(a.ints)
	case Float64:
		return len(a.floats)
	default:
		return len(a.complexes)
	}
}

// Int64s returns the backing slice of an Int64 array, nil otherwise.
func (a *Array) Int64s() []int64 { return a.ints }

// Float64s returns the backing slice of a Float64 array, nil otherwise.
func (a *Array) Float64s() []float64 { return a.floats }

// Complex128s returns the backing slice of a Complex128 array, nil otherwise.
func (a *Array) Complex128s() []complex128 { return a.complexes }

// Complex returns element i of the flat data as complex128.
func (a *Array) Complex(i int) complex128 {
	switch a.dtype {
	case Int64:
		return complex(float64(a.ints[i]), 0)
	case Float64:
		return complex(a.floats[i], 0)
	default:
		return a.complexes[i]
	}
}

// Offset returns the flat index of idx in row-major order.
func (a *Array) Offset(idx ...int) (int, error) {
	if len(idx) != len(a.shape) {
		return 0, fmt.Errorf("%w: %d indices for %d dimensions", ErrShape, len(idx), len(a.shape))
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= a.shape[k] {
			return 0, fmt.Errorf("%w: index %v out of range for %v", ErrShape, idx, a.shape)
		}
		off = off*a.shape[k] + i
	}
	return off, nil
}

// Reshape returns an array sharing a's data with a new shape.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if err := checkShape(shape, a.Len()); err != nil {
		return nil, err
	}
	b := *a
	b.shape = slices.Clone(shape)
	return &b, nil
}

// Squeeze drops every dimension of length one.
func (a *Array) Squeeze() *Array {
	shape := make([]int, 0, len(a.shape))
	for _, d := range a.shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	b := *a
	b.shape = shape
	return &b
}

// Astype returns a copy converted to dtype. Narrowing to Int64 truncates
// toward zero; narrowing from Complex128 drops the imaginary part.
func (a *Array) Astype(dtype DType) (*Array, error) {
	n := a.Len()
	switch dtype {
	case Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(real(a.Complex(i)))
		}
		if a.dtype == Int64 {
			copy(out, a.ints)
		}
		return NewInt64(a.shape, out)
	case Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = real(a.Complex(i))
		}
		return NewFloat64(a.shape, out)
	case Complex128:
		out := make([]complex128, n)
		for i := range out {
			out[i] = a.Complex(i)
		}
		return NewComplex128(a.shape, out)
	default:
		return nil, fmt.Errorf("%w: %v", ErrDType, dtype)
	}
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{
		shape:     slices.Clone(a.shape),
		dtype:     a.dtype,
		ints:      slices.Clone(a.ints),
		floats:    slices.Clone(a.floats),
		complexes: slices.Clone(a.complexes),
	}
}

func (a *Array) String() string {
	return fmt.Sprintf("array(%v, %v)", a.shape, a.dtype)
}
