package sparsefmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/absfs/convertfs"
	"github.com/absfs/convertfs/array"
	"github.com/absfs/convertfs/internal/npz"
	"github.com/absfs/convertfs/sparse"
)

func example(t *testing.T) *sparse.Matrix {
	t.Helper()
	m, err := sparse.NewCOO(4, 3,
		[]int{0, 0, 1, 2, 2, 3},
		[]int{0, 2, 2, 0, 1, 2},
		[]float64{1, 2, 3.5, -4, 5, 6e-9})
	require.NoError(t, err)
	return m
}

func TestExtensions(t *testing.T) {
	b := New()
	exts := b.Extensions()
	assert.Equal(t, []string{MTX, RUA, ".csc.npz", ".csr.npz", ".bsr.npz", ".dia.npz", ".coo.npz"}, exts[:7])
	assert.Len(t, exts, 7+2*len(convertfs.CompressionSuffixes()))
	assert.Contains(t, exts, ".mtx.bz2")
	assert.Contains(t, exts, ".rua.xz")
	assert.NotContains(t, exts, ".csr.npz.gz")

	mode, ok := b.Mode(RUA)
	assert.True(t, ok)
	assert.Equal(t, convertfs.ModeText, mode)
	mode, ok = b.Mode(MTX)
	assert.True(t, ok)
	assert.Equal(t, convertfs.ModeBinary, mode)
	mode, ok = b.Mode(NPZ(sparse.DIA))
	assert.True(t, ok)
	assert.Equal(t, convertfs.ModeBinary, mode)
}

func roundTrip(t *testing.T, native string, value any) *sparse.Matrix {
	t.Helper()
	b := New()
	var buf bytes.Buffer
	require.NoError(t, b.Save(&buf, native, value))
	got, err := b.Load(&buf, native)
	require.NoError(t, err)
	require.IsType(t, &sparse.Matrix{}, got)
	return got.(*sparse.Matrix)
}

func TestNPZFormats(t *testing.T) {
	m := example(t)
	for _, f := range sparse.Formats {
		t.Run(string(f), func(t *testing.T) {
			got := roundTrip(t, NPZ(f), m)
			assert.Equal(t, f, got.Format())
			assert.True(t, sparse.EqualApprox(m, got, 0))
		})
	}
}

func TestNPZMembers(t *testing.T) {
	want := map[sparse.Format][]string{
		sparse.CSR: {"format", "indices", "indptr", "shape", "data"},
		sparse.CSC: {"format", "indices", "indptr", "shape", "data"},
		sparse.BSR: {"format", "indices", "indptr", "shape", "data"},
		sparse.DIA: {"format", "offsets", "shape", "data"},
		sparse.COO: {"format", "row", "col", "shape", "data"},
	}
	for f, names := range want {
		var buf bytes.Buffer
		require.NoError(t, New().Save(&buf, NPZ(f), example(t)))
		members, err := npz.Read(&buf)
		require.NoError(t, err)

		var got []string
		for _, m := range members {
			got = append(got, m.Name)
		}
		assert.Equal(t, names, got, f)

		format, err := members[0].Text()
		require.NoError(t, err)
		assert.Equal(t, string(f), format)

		shape, ok := npz.Find(members, "shape")
		require.True(t, ok)
		a, err := shape.Array()
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 3}, a.Int64s())
	}
}

func TestStoredFormatWins(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Save(&buf, NPZ(sparse.CSR), example(t)))
	got, err := New().Load(&buf, NPZ(sparse.COO))
	require.NoError(t, err)
	assert.Equal(t, sparse.CSR, got.(*sparse.Matrix).Format())
}

func TestMatrixMarketAndHarwellBoeing(t *testing.T) {
	m := example(t)

	got := roundTrip(t, MTX, m)
	assert.Equal(t, sparse.COO, got.Format())
	assert.True(t, sparse.EqualApprox(m, got, 0))

	got = roundTrip(t, RUA, m)
	assert.Equal(t, sparse.CSC, got.Format())
	assert.True(t, sparse.EqualApprox(m, got, 0))

	dense := mat.NewDense(2, 2, []float64{0, 1, 2, 0})
	got = roundTrip(t, MTX, dense)
	assert.True(t, mat.Equal(dense, got))
}

func TestValidate(t *testing.T) {
	b := New()
	assert.NoError(t, b.Validate(RUA, example(t)))
	assert.NoError(t, b.Validate(NPZ(sparse.BSR), mat.NewDense(1, 1, []float64{3})))
	assert.ErrorIs(t, b.Validate(MTX, "matrix"), convertfs.ErrUnsupportedValue)
	assert.ErrorIs(t, b.Validate(MTX, (*sparse.Matrix)(nil)), convertfs.ErrUnsupportedValue)
}

func TestReadNPZErrors(t *testing.T) {
	write := func(members ...npz.Member) *bytes.Buffer {
		var buf bytes.Buffer
		require.NoError(t, npz.Write(&buf, members))
		return &buf
	}
	member := func(m npz.Member, err error) npz.Member {
		require.NoError(t, err)
		return m
	}
	ints := func(values ...int64) *array.Array {
		a, err := array.NewInt64([]int{len(values)}, values)
		require.NoError(t, err)
		return a
	}

	_, err := readNPZ(write(member(npz.ArrayMember("data", ints(1)))))
	assert.ErrorIs(t, err, npz.ErrFormat, "no format")

	_, err = readNPZ(write(member(npz.StringMember("format", "lil"))))
	assert.ErrorIs(t, err, sparse.ErrFormat, "unknown format")

	_, err = readNPZ(write(
		member(npz.StringMember("format", "coo")),
		member(npz.ArrayMember("shape", ints(2, 2))),
		member(npz.ArrayMember("data", ints(1))),
	))
	assert.ErrorIs(t, err, npz.ErrFormat, "no row")

	_, err = readNPZ(write(
		member(npz.StringMember("format", "coo")),
		member(npz.ArrayMember("shape", ints(2, 2, 2))),
	))
	assert.ErrorIs(t, err, npz.ErrFormat, "3-D shape")

	z, err := array.NewComplex128([]int{1}, []complex128{1i})
	require.NoError(t, err)
	_, err = readNPZ(write(
		member(npz.StringMember("format", "coo")),
		member(npz.ArrayMember("shape", ints(1, 1))),
		member(npz.ArrayMember("data", z)),
	))
	assert.ErrorIs(t, err, npz.ErrFormat, "complex data")
}
