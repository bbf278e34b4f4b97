// Package sparsefmt is the sparse matrix backend: SciPy .npz files per
// storage format, Matrix Market and Harwell-Boeing.
package sparsefmt

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/absfs/convertfs"
	"github.com/absfs/convertfs/internal/hbio"
	"github.com/absfs/convertfs/internal/mmio"
	"github.com/absfs/convertfs/sparse"
)

// Native extensions besides the per-format .npz ones.
const (
	MTX = ".mtx"
	RUA = ".rua"
)

// NPZ returns the .npz extension of a storage format, e.g. ".csr.npz".
func NPZ(format sparse.Format) string {
	return "." + string(format) + ".npz"
}

// Backend loads and saves *sparse.Matrix values.
type Backend struct {
	natives []string
	npz     map[string]sparse.Format
	modes   map[string]convertfs.Mode
}

// New returns the sparse backend.
func New() *Backend {
	b := &Backend{
		natives: []string{MTX, RUA},
		npz:     make(map[string]sparse.Format),
		modes: map[string]convertfs.Mode{
			MTX: convertfs.ModeBinary,
			RUA: convertfs.ModeText,
		},
	}
	for _, f := range sparse.Formats {
		ext := NPZ(f)
		b.natives = append(b.natives, ext)
		b.npz[ext] = f
		b.modes[ext] = convertfs.ModeBinary
	}
	return b
}

func (*Backend) Name() string { return "sparse" }

// Extensions lists .mtx, .rua and the .npz extensions followed by the
// compressed .mtx and .rua composites.
func (b *Backend) Extensions() []string {
	return append(append([]string(nil), b.natives...), convertfs.Composite(MTX, RUA)...)
}

func (b *Backend) Mode(native string) (convertfs.Mode, bool) {
	m, ok := b.modes[native]
	return m, ok
}

// prepare converts value to the layout native stores. .npz extensions use
// their own format, .rua is written from CSC.
func (b *Backend) prepare(native string, value any) (*sparse.Matrix, error) {
	var m *sparse.Matrix
	switch v := value.(type) {
	case *sparse.Matrix:
		if v == nil {
			return nil, fmt.Errorf("%w: nil matrix", convertfs.ErrUnsupportedValue)
		}
		m = v
	case mat.Matrix:
		var err error
		if m, err = sparse.FromMatrix(v, sparse.COO); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %T is not a matrix", convertfs.ErrUnsupportedValue, value)
	}

	switch {
	case native == RUA:
		return m.As(sparse.CSC)
	case b.npz[native] != "":
		return m.As(b.npz[native])
	default:
		return m, nil
	}
}

func (b *Backend) Validate(native string, value any) error {
	_, err := b.prepare(native, value)
	return err
}

// Load returns a *sparse.Matrix: COO for .mtx, CSC for .rua and the
// stored format for .npz.
func (b *Backend) Load(r io.Reader, native string) (any, error) {
	switch {
	case native == MTX:
		return mmio.Read(r)
	case native == RUA:
		return hbio.Read(r)
	case b.npz[native] != "":
		return readNPZ(r)
	default:
		return nil, fmt.Errorf("%w: %s", convertfs.ErrUnsupportedFileExtension, native)
	}
}

func (b *Backend) Save(w io.Writer, native string, value any) error {
	m, err := b.prepare(native, value)
	if err != nil {
		return err
	}
	switch {
	case native == MTX:
		return mmio.Write(w, m)
	case native == RUA:
		return hbio.Write(w, m)
	case b.npz[native] != "":
		return writeNPZ(w, m)
	default:
		return fmt.Errorf("%w: %s", convertfs.ErrUnsupportedFileExtension, native)
	}
}
