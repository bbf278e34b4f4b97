// Package arrayfmt is the dense array backend: NumPy .npy and .npz files and
// plain-text tables.
package arrayfmt

import (
	"errors"
	"fmt"
	"io"

	"github.com/absfs/convertfs"
	"github.com/absfs/convertfs/array"
	"github.com/absfs/convertfs/internal/npy"
	"github.com/absfs/convertfs/internal/npz"
	"github.com/absfs/convertfs/internal/textio"
)

// Native extensions.
const (
	NPY = ".npy"
	NPZ = ".npz"
	TXT = ".txt"
)

var (
	// ErrRank is returned when saving an array that is not 1-D or 2-D as text.
	ErrRank = errors.New("arrayfmt: only 1-D or 2-D arrays can be saved as " + TXT)

	// ErrArity is returned when an .npz file does not hold exactly one array.
	ErrArity = errors.New("arrayfmt: only " + NPZ + " files with a single array can be loaded")
)

// npzMember is the member name numpy.savez_compressed gives a lone
// positional array.
const npzMember = "arr_0"

var modes = map[string]convertfs.Mode{
	NPY: convertfs.ModeBinary,
	NPZ: convertfs.ModeBinary,
	TXT: convertfs.ModeBinary,
}

// Backend loads and saves *array.Array values.
type Backend struct{}

// New returns the array backend.
func New() *Backend { return &Backend{} }

func (*Backend) Name() string { return "array" }

// Extensions lists .npy, .npz and .txt followed by the compressed .npy and
// .txt composites. .npz is already a zip archive and has none.
func (*Backend) Extensions() []string {
	return append([]string{NPY, NPZ, TXT}, convertfs.Composite(NPY, TXT)...)
}

func (*Backend) Mode(native string) (convertfs.Mode, bool) {
	m, ok := modes[native]
	return m, ok
}

// prepare converts value and checks it fits native.
func prepare(native string, value any) (*array.Array, error) {
	a, err := array.From(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", convertfs.ErrUnsupportedValue, err)
	}
	if native == TXT && a.Ndim() != 1 && a.Ndim() != 2 {
		return nil, fmt.Errorf("%w: got a %d-D array", ErrRank, a.Ndim())
	}
	return a, nil
}

func (*Backend) Validate(native string, value any) error {
	_, err := prepare(native, value)
	return err
}

// Load returns an *array.Array.
func (*Backend) Load(r io.Reader, native string) (any, error) {
	switch native {
	case NPY:
		return npy.Read(r)
	case NPZ:
		members, err := npz.Read(r)
		if err != nil {
			return nil, err
		}
		if len(members) != 1 {
			return nil, fmt.Errorf("%w: %d arrays are stored in the file", ErrArity, len(members))
		}
		return members[0].Array()
	case TXT:
		return textio.Read(r)
	default:
		return nil, fmt.Errorf("%w: %s", convertfs.ErrUnsupportedFileExtension, native)
	}
}

func (*Backend) Save(w io.Writer, native string, value any) error {
	a, err := prepare(native, value)
	if err != nil {
		return err
	}
	switch native {
	case NPY:
		return npy.Write(w, a)
	case NPZ:
		m, err := npz.ArrayMember(npzMember, a)
		if err != nil {
			return err
		}
		return npz.Write(w, []npz.Member{m})
	case TXT:
		return textio.Write(w, a)
	default:
		return fmt.Errorf("%w: %s", convertfs.ErrUnsupportedFileExtension, native)
	}
}
