package convertfs

import (
	"bufio"
	"io"
	"io/fs"
	"os"

	"github.com/absfs/absfs"
	"go.uber.org/multierr"
	"golang.org/x/text/transform"
)

const (
	readFlag  = os.O_RDONLY
	writeFlag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	writePerm = fs.FileMode(0o644)
)

// compressedReader reads a file through a decompressor.
type compressedReader struct {
	base         absfs.File
	decompressor io.ReadCloser
	closed       bool
}

// OpenReader opens name on fsys for reading. With a non-empty algo the
// content is decompressed; the file's magic bytes must match algo.
func OpenReader(fsys absfs.Filer, name string, algo Algorithm) (io.ReadCloser, error) {
	base, err := fsys.OpenFile(name, readFlag, 0)
	if err != nil {
		return nil, err
	}
	if algo == "" {
		return base, nil
	}

	br := bufio.NewReader(base)
	if err := verifyMagic(br, algo); err != nil {
		base.Close()
		return nil, err
	}
	decompressor, err := createDecompressor(algo, br)
	if err != nil {
		base.Close()
		return nil, err
	}
	return &compressedReader{base: base, decompressor: decompressor}, nil
}

func (cr *compressedReader) Read(p []byte) (int, error) {
	if cr.closed {
		return 0, fs.ErrClosed
	}
	return cr.decompressor.Read(p)
}

func (cr *compressedReader) Close() error {
	if cr.closed {
		return nil
	}
	cr.closed = true
	err := cr.decompressor.Close()
	return multierr.Append(err, cr.base.Close())
}

// compressedWriter writes a file through a compressor.
type compressedWriter struct {
	base       absfs.File
	compressor io.WriteCloser
	closed     bool
}

// OpenWriter creates or truncates name on fsys. With a non-empty algo the
// content is compressed at level; zero selects the algorithm's default.
func OpenWriter(fsys absfs.Filer, name string, algo Algorithm, level int) (io.WriteCloser, error) {
	if algo != "" {
		// Reject bad levels before the file exists.
		if err := ValidateLevel(algo, level); err != nil {
			return nil, err
		}
	}
	base, err := fsys.OpenFile(name, writeFlag, writePerm)
	if err != nil {
		return nil, err
	}
	if algo == "" {
		return base, nil
	}

	compressor, err := createCompressor(algo, base, level)
	if err != nil {
		base.Close()
		return nil, err
	}
	return &compressedWriter{base: base, compressor: compressor}, nil
}

func (cw *compressedWriter) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, fs.ErrClosed
	}
	return cw.compressor.Write(p)
}

// Close flushes the compressor and closes the file. The first error wins.
func (cw *compressedWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	err := cw.compressor.Close()
	return multierr.Append(err, cw.base.Close())
}

// readStream is the stream handed to a backend's Load.
type readStream struct {
	c    *Converter
	src  io.ReadCloser
	r    io.Reader
	read int64
}

func (c *Converter) openRead(t *target) (*readStream, error) {
	src, err := OpenReader(c.fs, t.path, t.algo)
	if err != nil {
		return nil, err
	}
	rs := &readStream{c: c, src: src, r: src}
	if t.mode == ModeText {
		rs.r = transform.NewReader(bufio.NewReaderSize(src, c.bufferSize()), newlineNormalizer{})
	}
	return rs, nil
}

func (rs *readStream) Read(p []byte) (int, error) {
	n, err := rs.r.Read(p)
	rs.read += int64(n)
	return n, err
}

func (rs *readStream) Close() error {
	rs.c.addBytes(&rs.c.stats.BytesRead, rs.read)
	return rs.src.Close()
}

// writeStream is the stream handed to a backend's Save.
type writeStream struct {
	c        *Converter
	dst      io.WriteCloser
	buffered *bufio.Writer
	w        io.Writer
	written  int64
}

func (c *Converter) openWrite(t *target) (*writeStream, error) {
	level := 0
	if t.algo != "" {
		level = c.config.Level(t.algo)
	}
	dst, err := OpenWriter(c.fs, t.path, t.algo, level)
	if err != nil {
		return nil, err
	}
	ws := &writeStream{c: c, dst: dst, w: dst}
	if t.mode == ModeText {
		ws.buffered = bufio.NewWriterSize(dst, c.bufferSize())
		ws.w = ws.buffered
	}
	return ws, nil
}

func (ws *writeStream) Write(p []byte) (int, error) {
	n, err := ws.w.Write(p)
	ws.written += int64(n)
	return n, err
}

func (ws *writeStream) Close() error {
	var err error
	if ws.buffered != nil {
		err = ws.buffered.Flush()
	}
	ws.c.addBytes(&ws.c.stats.BytesWritten, ws.written)
	return multierr.Append(err, ws.dst.Close())
}

func (c *Converter) bufferSize() int {
	if c.config.BufferSize > 0 {
		return c.config.BufferSize
	}
	return 64 * 1024
}

// newlineNormalizer rewrites CRLF and lone CR line endings to LF.
type newlineNormalizer struct{ transform.NopResetter }

func (newlineNormalizer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]
		consumed := 1
		if b == '\r' {
			switch {
			case nSrc+1 < len(src) && src[nSrc+1] == '\n':
				consumed = 2
			case nSrc+1 == len(src) && !atEOF:
				return nDst, nSrc, transform.ErrShortSrc
			}
			b = '\n'
		}
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = b
		nDst++
		nSrc += consumed
	}
	return nDst, nSrc, nil
}
