package convertfs

import (
	"fmt"
	"strings"
)

type registryEntry struct {
	backend Backend
	ext     string
}

// Registry maps extensions to the backends owning them. It is built once and
// never modified.
type Registry struct {
	backends []Backend
	entries  []registryEntry
	owner    map[string]int
	pairs    []Pair
}

// NewRegistry builds the registry for backends in the given order. Every
// extension must belong to exactly one backend and every native extension
// must have a mode.
func NewRegistry(backends ...Backend) (*Registry, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	r := &Registry{
		backends: append([]Backend(nil), backends...),
		owner:    make(map[string]int),
	}

	for i, b := range backends {
		exts := b.Extensions()
		for _, ext := range exts {
			if prev, ok := r.owner[ext]; ok {
				return nil, fmt.Errorf("%w: %q claimed by %s and %s", ErrDuplicateExtension, ext, backends[prev].Name(), b.Name())
			}
			if _, ok := b.Mode(nativeExtension(ext)); !ok {
				return nil, fmt.Errorf("%w: %s has no mode for %q", ErrMissingMode, b.Name(), nativeExtension(ext))
			}
			r.owner[ext] = i
			r.entries = append(r.entries, registryEntry{backend: b, ext: ext})
		}
		for _, from := range exts {
			for _, to := range exts {
				r.pairs = append(r.pairs, Pair{From: from, To: to})
			}
		}
	}

	return r, nil
}

// nativeExtension strips a trailing compression suffix from ext.
func nativeExtension(ext string) string {
	if native, _, ok := StripExtension(ext); ok && native != "" {
		return native
	}
	return ext
}

// Backends returns the registered backends in order.
func (r *Registry) Backends() []Backend {
	return append([]Backend(nil), r.backends...)
}

// Extensions returns every registered extension in registration order.
func (r *Registry) Extensions() []string {
	exts := make([]string, len(r.entries))
	for i, e := range r.entries {
		exts[i] = e.ext
	}
	return exts
}

// Pairs returns every legal conversion pair.
func (r *Registry) Pairs() []Pair {
	return append([]Pair(nil), r.pairs...)
}

// Allowed reports whether a conversion from one extension to another is legal.
func (r *Registry) Allowed(from, to string) bool {
	a, ok := r.owner[from]
	if !ok {
		return false
	}
	b, ok := r.owner[to]
	return ok && a == b
}

// Owner returns the backend registered for ext.
func (r *Registry) Owner(ext string) (Backend, bool) {
	i, ok := r.owner[ext]
	if !ok {
		return nil, false
	}
	return r.backends[i], true
}

// Resolve finds the backend and extension owning path. The longest matching
// suffix wins; on equal length the earliest registration wins.
func (r *Registry) Resolve(path string) (Backend, string, error) {
	var (
		best    Backend
		bestExt string
	)
	for _, e := range r.entries {
		if len(e.ext) > len(bestExt) && strings.HasSuffix(path, e.ext) {
			best, bestExt = e.backend, e.ext
		}
	}
	if best == nil {
		return nil, "", &UnsupportedFileExtensionError{Path: path, Supported: r.Extensions()}
	}
	return best, bestExt, nil
}

// UnsupportedFileExtensionError is returned when no backend owns a path.
type UnsupportedFileExtensionError struct {
	Path      string
	Supported []string
}

func (e *UnsupportedFileExtensionError) Error() string {
	return fmt.Sprintf("convertfs: the file %s has an unsupported file extension, only %s are supported",
		e.Path, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedFileExtensionError) Unwrap() error {
	return ErrUnsupportedFileExtension
}

// UnsupportedConversionError is returned when both extensions are known but
// the pair is not legal.
type UnsupportedConversionError struct {
	From      string
	To        string
	Supported []Pair
}

func (e *UnsupportedConversionError) Error() string {
	var groups []string
	grouped := make(map[string]bool)
	for _, p := range e.Supported {
		if grouped[p.From] {
			continue
		}
		var members []string
		for _, q := range e.Supported {
			if q.From == p.From {
				members = append(members, q.To)
				grouped[q.To] = true
			}
		}
		groups = append(groups, "{"+strings.Join(members, ", ")+"}")
	}
	return fmt.Sprintf("convertfs: converting %s to %s is not supported, only conversions within %s are supported",
		e.From, e.To, strings.Join(groups, " or within "))
}

func (e *UnsupportedConversionError) Unwrap() error {
	return ErrUnsupportedConversion
}
