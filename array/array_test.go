package array

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestConstructors(t *testing.T) {
	a, err := NewFloat64([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, Float64, a.DType())
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 2, a.Ndim())
	assert.Equal(t, 6, a.Len())

	_, err = NewInt64([]int{2, 2}, []int64{1, 2, 3})
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewComplex128([]int{-1}, nil)
	assert.ErrorIs(t, err, ErrShape)

	scalar, err := NewFloat64(nil, []float64{7})
	require.NoError(t, err)
	assert.Equal(t, 0, scalar.Ndim())
	assert.Equal(t, 1, scalar.Len())

	z, err := Zeros(Complex128, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, z.Len())
	assert.Equal(t, []int{3, 0}, z.Shape())

	_, err = Zeros(DType(9), 1)
	assert.ErrorIs(t, err, ErrDType)
}

func TestSize(t *testing.T) {
	tests := []struct {
		shape []int
		want  int
		err   bool
	}{
		{nil, 1, false},
		{[]int{10}, 10, false},
		{[]int{2, 3}, 6, false},
		{[]int{1 << 62, 0}, 0, false},
		{[]int{-1, 3}, 0, true},
		{[]int{1 << 62, 4}, 0, true},
		{[]int{1 << 61, 1 << 61}, 0, true},
		{[]int{math.MaxInt, 2}, 0, true},
	}
	for _, tt := range tests {
		n, err := Size(tt.shape)
		if tt.err {
			assert.ErrorIs(t, err, ErrShape, "%v", tt.shape)
			continue
		}
		require.NoError(t, err, "%v", tt.shape)
		assert.Equal(t, tt.want, n, "%v", tt.shape)
	}

	_, err := Zeros(Float64, 1<<62, 4)
	assert.ErrorIs(t, err, ErrShape)
}

func TestShapeIsCopied(t *testing.T) {
	shape := []int{2, 2}
	a, err := NewInt64(shape, []int64{1, 2, 3, 4})
	require.NoError(t, err)

	shape[0] = 4
	got := a.Shape()
	got[1] = 9
	assert.Equal(t, []int{2, 2}, a.Shape())
}

func TestOffsetReshapeSqueeze(t *testing.T) {
	a, err := NewInt64([]int{2, 3}, []int64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)

	off, err := a.Offset(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, off)
	assert.Equal(t, int64(5), a.Int64s()[off])

	_, err = a.Offset(2, 0)
	assert.ErrorIs(t, err, ErrShape)
	_, err = a.Offset(1)
	assert.ErrorIs(t, err, ErrShape)

	b, err := a.Reshape(3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, b.Shape())
	assert.Equal(t, []int{2, 3}, a.Shape())

	_, err = a.Reshape(4, 2)
	assert.ErrorIs(t, err, ErrShape)

	row, err := a.Reshape(1, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{6}, row.Squeeze().Shape())

	one, err := NewFloat64([]int{1, 1}, []float64{3})
	require.NoError(t, err)
	assert.Empty(t, one.Squeeze().Shape())
}

func TestAstype(t *testing.T) {
	z, err := NewComplex128([]int{2}, []complex128{1.5 + 2i, -2.7})
	require.NoError(t, err)

	f, err := z.Astype(Float64)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.7}, f.Float64s())

	i, err := f.Astype(Int64)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -2}, i.Int64s())

	back, err := i.Astype(Complex128)
	require.NoError(t, err)
	assert.Equal(t, []complex128{1, -2}, back.Complex128s())

	_, err = z.Astype(DType(7))
	assert.ErrorIs(t, err, ErrDType)
}

func TestClone(t *testing.T) {
	a, err := NewFloat64([]int{2}, []float64{1, 2})
	require.NoError(t, err)
	b := a.Clone()
	b.Float64s()[0] = 9
	assert.Equal(t, 1.0, a.Float64s()[0])
	assert.Equal(t, "array([2], float64)", a.String())
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		value any
		shape []int
		dtype DType
	}{
		{"ints", []int{1, 2, 3}, []int{3}, Int64},
		{"int64s", []int64{1, 2}, []int{2}, Int64},
		{"floats", []float64{1.5}, []int{1}, Float64},
		{"complexes", []complex128{1i, 2}, []int{2}, Complex128},
		{"rows", [][]float64{{1, 2, 3}, {4, 5, 6}}, []int{2, 3}, Float64},
		{"complex rows", [][]complex128{{1i}, {2}}, []int{2, 1}, Complex128},
		{"dense", mat.NewDense(2, 2, []float64{1, 2, 3, 4}), []int{2, 2}, Float64},
		{"vector", mat.NewVecDense(3, []float64{1, 2, 3}), []int{3}, Float64},
		{"cdense", mat.NewCDense(1, 2, []complex128{1, 2i}), []int{1, 2}, Complex128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := From(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, a.Shape())
			assert.Equal(t, tt.dtype, a.DType())
		})
	}

	_, err := From("text")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = From((*Array)(nil))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = From([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestFromCopiesSlices(t *testing.T) {
	src := []float64{1, 2}
	a, err := From(src)
	require.NoError(t, err)
	src[0] = 9
	assert.Equal(t, 1.0, a.Float64s()[0])
}

func TestDense(t *testing.T) {
	a, err := NewInt64([]int{2, 2}, []int64{1, 2, 3, 4})
	require.NoError(t, err)

	d, err := a.Dense()
	require.NoError(t, err)
	assert.True(t, mat.Equal(d, mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	v, err := NewFloat64([]int{3}, []float64{1, 2, 3})
	require.NoError(t, err)
	col, err := v.Dense()
	require.NoError(t, err)
	r, c := col.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)

	z, err := NewComplex128([]int{1, 2}, []complex128{1, 2i})
	require.NoError(t, err)
	_, err = z.Dense()
	assert.ErrorIs(t, err, ErrDType)

	cd, err := z.CDense()
	require.NoError(t, err)
	assert.Equal(t, 2i, cd.At(0, 1))

	empty, err := Zeros(Float64, 0)
	require.NoError(t, err)
	_, err = empty.Dense()
	assert.ErrorIs(t, err, ErrShape)

	cube, err := Zeros(Float64, 2, 2, 2)
	require.NoError(t, err)
	_, err = cube.Dense()
	assert.ErrorIs(t, err, ErrShape)
}

func TestEqualApprox(t *testing.T) {
	a, _ := NewFloat64([]int{2}, []float64{1, 2})
	b, _ := NewFloat64([]int{2}, []float64{1, 2 + 1e-12})
	c, _ := NewFloat64([]int{1, 2}, []float64{1, 2})
	z, _ := NewComplex128([]int{2}, []complex128{1, 2})
	i, _ := NewInt64([]int{2}, []int64{1, 2})
	j, _ := NewInt64([]int{2}, []int64{1, 3})

	assert.True(t, EqualApprox(a, b, 1e-9))
	assert.False(t, EqualApprox(a, b, 0))
	assert.False(t, EqualApprox(a, c, 1e-9))
	assert.True(t, EqualApprox(a, z, 0))
	assert.True(t, EqualApprox(a, i, 0))
	assert.False(t, EqualApprox(i, j, 10))
}
