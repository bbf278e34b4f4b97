package convertfs

import "io"

// Backend owns a set of file extensions and encodes the values stored under
// them.
//
// Extensions lists every owned extension, natives and compression
// composites alike. Mode, Validate, Load and Save are only ever called with
// a native extension; the Converter strips compression suffixes first.
type Backend interface {
	// Name identifies the backend in errors and logs.
	Name() string

	// Extensions returns the owned extensions in match order.
	Extensions() []string

	// Mode returns the text/binary mode of a native extension.
	Mode(native string) (Mode, bool)

	// Validate rejects values that cannot be saved under native. It runs
	// before the destination is opened.
	Validate(native string, value any) error

	// Load decodes a value from r.
	Load(r io.Reader, native string) (any, error)

	// Save encodes value to w.
	Save(w io.Writer, native string, value any) error
}

// Pair is an ordered (source, destination) extension pair.
type Pair struct {
	From string
	To   string
}

func (p Pair) String() string {
	return p.From + "->" + p.To
}
