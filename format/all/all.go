// Package all wires the default backends into a converter and exposes
// package-level helpers that operate on the host filesystem.
package all

import (
	"sync"

	"github.com/absfs/absfs"

	"github.com/absfs/convertfs"
	"github.com/absfs/convertfs/format/arrayfmt"
	"github.com/absfs/convertfs/format/sparsefmt"
)

// Backends returns the default backends in registration order.
func Backends() []convertfs.Backend {
	return []convertfs.Backend{
		arrayfmt.New(),
		sparsefmt.New(),
	}
}

// New returns a converter over fsys using the default backends.
func New(fsys absfs.Filer, config *convertfs.Config) (*convertfs.Converter, error) {
	return convertfs.New(fsys, config, Backends()...)
}

var (
	defaultOnce sync.Once
	defaultConv *convertfs.Converter
	defaultErr  error
)

// Default returns the shared converter over the host filesystem.
func Default() (*convertfs.Converter, error) {
	defaultOnce.Do(func() {
		fsys, err := convertfs.NewOSFS()
		if err != nil {
			defaultErr = err
			return
		}
		defaultConv, defaultErr = New(fsys, nil)
	})
	return defaultConv, defaultErr
}

// Extensions lists every extension of the default backends.
func Extensions() []string {
	var exts []string
	for _, b := range Backends() {
		exts = append(exts, b.Extensions()...)
	}
	return exts
}

// Load reads path from the host filesystem.
func Load(path string) (any, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.Load(path)
}

// Save writes value to path on the host filesystem.
func Save(path string, value any) error {
	c, err := Default()
	if err != nil {
		return err
	}
	return c.Save(path, value)
}

// ConvertFile converts from into to on the host filesystem and returns to.
func ConvertFile(from, to string) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.ConvertFile(from, to)
}

// ConvertFileExtension converts path to the same name with extension and
// returns the new path.
func ConvertFileExtension(path, extension string) (string, error) {
	c, err := Default()
	if err != nil {
		return "", err
	}
	return c.ConvertFileExtension(path, extension)
}
