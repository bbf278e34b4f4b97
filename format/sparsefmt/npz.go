package sparsefmt

import (
	"fmt"
	"io"

	"github.com/absfs/convertfs/array"
	"github.com/absfs/convertfs/internal/npz"
	"github.com/absfs/convertfs/sparse"
)

// members are read by name; the archive follows scipy.sparse.save_npz.
type archive []npz.Member

func (a archive) array(name string) (*array.Array, error) {
	m, ok := npz.Find(a, name)
	if !ok {
		return nil, fmt.Errorf("%w: sparse archive has no %q", npz.ErrFormat, name)
	}
	return m.Array()
}

func (a archive) ints(name string) ([]int, error) {
	arr, err := a.array(name)
	if err != nil {
		return nil, err
	}
	if arr.DType() != array.Int64 {
		return nil, fmt.Errorf("%w: %q holds %v, want integers", npz.ErrFormat, name, arr.DType())
	}
	out := make([]int, arr.Len())
	for i, v := range arr.Int64s() {
		out[i] = int(v)
	}
	return out, nil
}

// floats returns a real member and its shape.
func (a archive) floats(name string) ([]float64, []int, error) {
	arr, err := a.array(name)
	if err != nil {
		return nil, nil, err
	}
	if arr.DType() == array.Complex128 {
		return nil, nil, fmt.Errorf("%w: complex %q is not supported", npz.ErrFormat, name)
	}
	f, err := arr.Astype(array.Float64)
	if err != nil {
		return nil, nil, err
	}
	return f.Float64s(), arr.Shape(), nil
}

func readNPZ(r io.Reader) (*sparse.Matrix, error) {
	members, err := npz.Read(r)
	if err != nil {
		return nil, err
	}
	a := archive(members)

	m, ok := npz.Find(a, "format")
	if !ok {
		return nil, fmt.Errorf("%w: sparse archive has no format", npz.ErrFormat)
	}
	name, err := m.Text()
	if err != nil {
		return nil, err
	}
	format, err := sparse.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	shape, err := a.ints("shape")
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: shape %v", npz.ErrFormat, shape)
	}
	rows, cols := shape[0], shape[1]

	data, dataShape, err := a.floats("data")
	if err != nil {
		return nil, err
	}

	switch format {
	case sparse.CSR, sparse.CSC, sparse.BSR:
		indices, err := a.ints("indices")
		if err != nil {
			return nil, err
		}
		indptr, err := a.ints("indptr")
		if err != nil {
			return nil, err
		}
		switch format {
		case sparse.CSR:
			return sparse.NewCSR(rows, cols, indptr, indices, data)
		case sparse.CSC:
			return sparse.NewCSC(rows, cols, indptr, indices, data)
		}
		if len(dataShape) != 3 {
			return nil, fmt.Errorf("%w: bsr data has shape %v", npz.ErrFormat, dataShape)
		}
		return sparse.NewBSR(rows, cols, dataShape[1], dataShape[2], indptr, indices, data)
	case sparse.DIA:
		offsets, err := a.ints("offsets")
		if err != nil {
			return nil, err
		}
		if len(dataShape) != 2 || dataShape[0] != len(offsets) {
			return nil, fmt.Errorf("%w: dia data has shape %v for %d offsets", npz.ErrFormat, dataShape, len(offsets))
		}
		diagonals := make([][]float64, len(offsets))
		for k := range diagonals {
			diagonals[k] = data[k*dataShape[1] : (k+1)*dataShape[1]]
		}
		return sparse.NewDIA(rows, cols, offsets, diagonals)
	default:
		row, err := a.ints("row")
		if err != nil {
			return nil, err
		}
		col, err := a.ints("col")
		if err != nil {
			return nil, err
		}
		m, err := sparse.NewCOO(rows, cols, row, col, data)
		if err != nil {
			return nil, err
		}
		return m.As(sparse.COO)
	}
}

func intArray(values []int) *array.Array {
	data := make([]int64, len(values))
	for i, v := range values {
		data[i] = int64(v)
	}
	a, _ := array.NewInt64([]int{len(data)}, data)
	return a
}

func floatArray(shape []int, values []float64) (*array.Array, error) {
	return array.NewFloat64(shape, values)
}

// writeNPZ stores m in the layout of its own format.
func writeNPZ(w io.Writer, m *sparse.Matrix) error {
	type named struct {
		name  string
		value *array.Array
	}
	var arrays []named

	var (
		data *array.Array
		err  error
	)
	switch m.Format() {
	case sparse.CSR, sparse.CSC:
		indptr, indices, values := m.CSR()
		if m.Format() == sparse.CSC {
			indptr, indices, values = m.CSC()
		}
		arrays = append(arrays, named{"indices", intArray(indices)}, named{"indptr", intArray(indptr)})
		data, err = floatArray([]int{len(values)}, values)
	case sparse.BSR:
		r, c, indptr, indices, blocks := m.BSR()
		arrays = append(arrays, named{"indices", intArray(indices)}, named{"indptr", intArray(indptr)})
		data, err = floatArray([]int{len(indices), r, c}, blocks)
	case sparse.DIA:
		offsets, diagonals := m.DIA()
		_, cols := m.Dims()
		flat := make([]float64, 0, len(offsets)*cols)
		for _, d := range diagonals {
			flat = append(flat, d...)
		}
		arrays = append(arrays, named{"offsets", intArray(offsets)})
		data, err = floatArray([]int{len(offsets), cols}, flat)
	default:
		row, col, values := m.COO()
		arrays = append(arrays, named{"row", intArray(row)}, named{"col", intArray(col)})
		data, err = floatArray([]int{len(values)}, values)
	}
	if err != nil {
		return err
	}

	rows, cols := m.Dims()
	arrays = append(arrays, named{"shape", intArray([]int{rows, cols})}, named{"data", data})

	format, err := npz.StringMember("format", string(m.Format()))
	if err != nil {
		return err
	}
	members := []npz.Member{format}
	for _, a := range arrays {
		member, err := npz.ArrayMember(a.name, a.value)
		if err != nil {
			return err
		}
		members = append(members, member)
	}
	return npz.Write(w, members)
}
