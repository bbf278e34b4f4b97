// Package npy adapts .npy streams to array.Array on top of npyio.
//
// Reads accept any byte order, Fortran order, and the integer, bool, float
// and complex widths NumPy stores, promoted to the nearest Array dtype.
// Writes use little-endian int64, float64 or complex128 in C order.
package npy

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"

	"github.com/sbinet/npyio"

	"github.com/absfs/convertfs/array"
)

// ErrFormat is returned for malformed or unsupported .npy content.
var ErrFormat = errors.New("npy: invalid format")

// Magic starts every .npy stream.
var Magic = []byte("\x93NUMPY")

// Header is the parsed array description.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// ReadHeader consumes the preamble and header dictionary, leaving r at the
// start of the data.
func ReadHeader(r io.Reader) (Header, *npyio.Reader, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	d := nr.Header.Descr
	shape := append([]int{}, d.Shape...)
	return Header{Descr: d.Type, FortranOrder: d.Fortran, Shape: shape}, nr, nil
}

// elemSize returns the byte width in descr, such as 8 for "<f8".
func elemSize(descr string) (kind byte, size int, err error) {
	if len(descr) < 3 {
		return 0, 0, fmt.Errorf("%w: descr %q", ErrFormat, descr)
	}
	switch descr[0] {
	case '<', '>', '|', '=':
	default:
		return 0, 0, fmt.Errorf("%w: byte order in %q", ErrFormat, descr)
	}
	size, err = strconv.Atoi(descr[2:])
	if err != nil || size <= 0 {
		return 0, 0, fmt.Errorf("%w: size in %q", ErrFormat, descr)
	}
	return descr[1], size, nil
}

// Read decodes one numeric array.
func Read(r io.Reader) (*array.Array, error) {
	h, nr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	kind, size, err := elemSize(h.Descr)
	if err != nil {
		return nil, err
	}
	n, err := array.Size(h.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if n > math.MaxInt/size {
		return nil, fmt.Errorf("%w: shape %v of %s does not fit in memory", ErrFormat, h.Shape, h.Descr)
	}

	var a *array.Array
	switch {
	case kind == 'b' && size == 1:
		a, err = readBools(nr, h.Shape)
	case kind == 'i' && size == 1:
		a, err = readInts[int8](nr, h.Shape)
	case kind == 'i' && size == 2:
		a, err = readInts[int16](nr, h.Shape)
	case kind == 'i' && size == 4:
		a, err = readInts[int32](nr, h.Shape)
	case kind == 'i' && size == 8:
		a, err = readInts[int64](nr, h.Shape)
	case kind == 'u' && size == 1:
		a, err = readInts[uint8](nr, h.Shape)
	case kind == 'u' && size == 2:
		a, err = readInts[uint16](nr, h.Shape)
	case kind == 'u' && size == 4:
		a, err = readInts[uint32](nr, h.Shape)
	case kind == 'u' && size == 8:
		a, err = readInts[uint64](nr, h.Shape)
	case kind == 'f' && size == 4:
		a, err = readFloats[float32](nr, h.Shape)
	case kind == 'f' && size == 8:
		a, err = readFloats[float64](nr, h.Shape)
	case kind == 'c' && size == 8:
		a, err = readComplexes[complex64](nr, h.Shape)
	case kind == 'c' && size == 16:
		a, err = readComplexes[complex128](nr, h.Shape)
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrFormat, h.Descr)
	}
	if err != nil {
		return nil, err
	}
	if h.FortranOrder && len(h.Shape) > 1 {
		a = fromFortran(a)
	}
	return a, nil
}

func readSlice[T any](nr *npyio.Reader, n int) ([]T, error) {
	var v []T
	if err := nr.Read(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: read %d values, want %d", ErrFormat, len(v), n)
	}
	return v, nil
}

func readBools(nr *npyio.Reader, shape []int) (*array.Array, error) {
	n, _ := array.Size(shape)
	v, err := readSlice[bool](nr, n)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(v))
	for i, b := range v {
		if b {
			out[i] = 1
		}
	}
	return array.NewInt64(shape, out)
}

func readInts[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64](nr *npyio.Reader, shape []int) (*array.Array, error) {
	n, _ := array.Size(shape)
	v, err := readSlice[T](nr, n)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return array.NewInt64(shape, out)
}

func readFloats[T float32 | float64](nr *npyio.Reader, shape []int) (*array.Array, error) {
	n, _ := array.Size(shape)
	v, err := readSlice[T](nr, n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return array.NewFloat64(shape, out)
}

func readComplexes[T complex64 | complex128](nr *npyio.Reader, shape []int) (*array.Array, error) {
	n, _ := array.Size(shape)
	v, err := readSlice[T](nr, n)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = complex128(x)
	}
	return array.NewComplex128(shape, out)
}

// fromFortran reorders column-major data into row-major order.
func fromFortran(a *array.Array) *array.Array {
	shape := a.Shape()
	cStrides := make([]int, len(shape))
	stride := 1
	for k := len(shape) - 1; k >= 0; k-- {
		cStrides[k] = stride
		stride *= shape[k]
	}
	toC := func(f int) int {
		c := 0
		for k, d := range shape {
			c += (f % d) * cStrides[k]
			f /= d
		}
		return c
	}

	out := a.Clone()
	switch a.DType() {
	case array.Int64:
		src, dst := a.Int64s(), out.Int64s()
		for f := range src {
			dst[toC(f)] = src[f]
		}
	case array.Float64:
		src, dst := a.Float64s(), out.Float64s()
		for f := range src {
			dst[toC(f)] = src[f]
		}
	case array.Complex128:
		src, dst := a.Complex128s(), out.Complex128s()
		for f := range src {
			dst[toC(f)] = src[f]
		}
	}
	return out
}

// Descr returns the descr written for dt.
func Descr(dt array.DType) string {
	switch dt {
	case array.Int64:
		return "<i8"
	case array.Complex128:
		return "<c16"
	default:
		return "<f8"
	}
}

// Write encodes a in C order.
func Write(w io.Writer, a *array.Array) error {
	return npyio.Write(w, shaped(a))
}

// shaped lays the flat data out as a Go value whose type carries the
// shape: a scalar for 0-d, a slice for 1-d, and a slice of fixed-size
// arrays beyond that.
func shaped(a *array.Array) any {
	var flat reflect.Value
	switch a.DType() {
	case array.Int64:
		flat = reflect.ValueOf(a.Int64s())
	case array.Complex128:
		flat = reflect.ValueOf(a.Complex128s())
	default:
		flat = reflect.ValueOf(a.Float64s())
	}

	shape := a.Shape()
	switch len(shape) {
	case 0:
		return flat.Index(0).Interface()
	case 1:
		return flat.Interface()
	}
	elem := flat.Type().Elem()
	for k := len(shape) - 1; k >= 1; k-- {
		elem = reflect.ArrayOf(shape[k], elem)
	}
	out := reflect.MakeSlice(reflect.SliceOf(elem), shape[0], shape[0])
	fill(out, flat)
	return out.Interface()
}

// fill copies flat into the innermost arrays of dst in order and returns
// what is left of flat.
func fill(dst, flat reflect.Value) reflect.Value {
	if dst.Type().Elem() == flat.Type().Elem() {
		n := reflect.Copy(dst, flat)
		return flat.Slice(n, flat.Len())
	}
	for i := 0; i < dst.Len(); i++ {
		flat = fill(dst.Index(i), flat)
	}
	return flat
}
