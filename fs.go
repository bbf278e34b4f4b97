package convertfs

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// target is a path resolved against the registry.
type target struct {
	path    string
	backend Backend
	ext     string // matched extension, compression suffix included
	native  string
	algo    Algorithm
	mode    Mode
}

// resolve finds the backend for path, splits off the compression suffix and
// selects the mode of the native extension.
func (c *Converter) resolve(path string) (*target, error) {
	backend, ext, err := c.registry.Resolve(path)
	if err != nil {
		return nil, err
	}

	t := &target{path: path, backend: backend, ext: ext, native: ext}
	if algo, err := ResolveCompression(ext); err == nil {
		if native, _, ok := StripExtension(ext); ok && native != "" {
			t.native = native
			t.algo = algo
		}
	}

	mode, ok := backend.Mode(t.native)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no mode for %q", ErrMissingMode, backend.Name(), t.native)
	}
	t.mode = mode

	c.logger.Debug("resolved",
		zap.String("path", path),
		zap.String("backend", backend.Name()),
		zap.String("extension", ext),
		zap.String("native", t.native),
		zap.String("compression", string(t.algo)),
		zap.Stringer("mode", t.mode),
	)
	return t, nil
}

// Load reads the value stored in path.
func (c *Converter) Load(path string) (value any, err error) {
	t, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	rs, err := c.openRead(t)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, rs.Close())
		if err != nil {
			value = nil
		}
	}()

	value, err = t.backend.Load(rs, t.native)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	c.incrementStat(&c.stats.FilesLoaded)
	if t.algo != "" {
		c.incrementStat(&c.stats.FilesDecompressed)
		c.stats.IncrementAlgorithmCount(t.algo)
	}
	c.logger.Debug("loaded", zap.String("path", path), zap.Int64("bytes", rs.read))
	return value, nil
}

// Save writes value to path, replacing any existing file.
func (c *Converter) Save(path string, value any) (err error) {
	t, err := c.resolve(path)
	if err != nil {
		return err
	}
	if err := t.backend.Validate(t.native, value); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	ws, err := c.openWrite(t)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, ws.Close())
	}()

	if err := t.backend.Save(ws, t.native, value); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	c.incrementStat(&c.stats.FilesSaved)
	if t.algo != "" {
		c.incrementStat(&c.stats.FilesCompressed)
		c.stats.IncrementAlgorithmCount(t.algo)
	}
	c.logger.Debug("saved", zap.String("path", path), zap.Int64("bytes", ws.written))
	return nil
}

// ConvertFile loads from and saves the value to to. Equal paths are a no-op.
// It returns to.
func (c *Converter) ConvertFile(from, to string) (string, error) {
	if from == to {
		return to, nil
	}

	src, err := c.resolve(from)
	if err != nil {
		return "", err
	}
	dst, err := c.resolve(to)
	if err != nil {
		return "", err
	}
	if !c.registry.Allowed(src.ext, dst.ext) {
		return "", &UnsupportedConversionError{From: src.ext, To: dst.ext, Supported: c.registry.Pairs()}
	}

	value, err := c.Load(from)
	if err != nil {
		return "", err
	}
	if err := c.Save(to, value); err != nil {
		return "", err
	}

	c.incrementStat(&c.stats.FilesConverted)
	c.logger.Debug("converted", zap.String("from", from), zap.String("to", to))
	return to, nil
}

// ConvertFileExtension converts path to a sibling file whose matched
// extension is replaced by extension. It returns the new path.
func (c *Converter) ConvertFileExtension(path, extension string) (string, error) {
	_, ext, err := c.registry.Resolve(path)
	if err != nil {
		return "", err
	}
	return c.ConvertFile(path, path[:len(path)-len(ext)]+extension)
}
