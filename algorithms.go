package convertfs

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// defaultLevels holds the write level used when a Config does not override
// it. Every family writes at its high-compression setting.
var defaultLevels = map[Algorithm]int{
	AlgorithmGzip:   gzip.BestCompression,
	AlgorithmBzip2:  bzip2.BestCompression,
	AlgorithmXz:     6,
	AlgorithmZstd:   19,
	AlgorithmLZ4:    9,
	AlgorithmBrotli: brotli.BestCompression,
	AlgorithmSnappy: 0,
}

// levelRanges bounds the accepted levels per algorithm. Zero is reserved for
// the family default, so the ranges start at 1: xz preset 0, lz4.Fast
// and brotli quality 0 are not selectable.
var levelRanges = map[Algorithm][2]int{
	AlgorithmGzip:   {gzip.BestSpeed, gzip.BestCompression},
	AlgorithmBzip2:  {bzip2.BestSpeed, bzip2.BestCompression},
	AlgorithmXz:     {1, 9},
	AlgorithmZstd:   {1, 22},
	AlgorithmLZ4:    {1, 9},
	AlgorithmBrotli: {1, brotli.BestCompression},
	AlgorithmSnappy: {0, 0},
}

// xz preset dictionary sizes, indexed by preset.
var xzDictCaps = [...]int{
	256 << 10, 1 << 20, 2 << 20, 4 << 20, 4 << 20,
	8 << 20, 8 << 20, 16 << 20, 32 << 20, 64 << 20,
}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// DefaultLevel returns the write level used for algo when none is configured.
func DefaultLevel(algo Algorithm) int {
	return defaultLevels[algo]
}

// ValidateLevel reports whether level is acceptable for algo.
func ValidateLevel(algo Algorithm, level int) error {
	bounds, ok := levelRanges[algo]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	if level == 0 {
		return nil
	}
	if level < bounds[0] || level > bounds[1] {
		return fmt.Errorf("%w: %s accepts %d-%d, got %d", ErrInvalidLevel, algo, bounds[0], bounds[1], level)
	}
	return nil
}

// createCompressor creates a compressor for the specified algorithm
func createCompressor(algo Algorithm, w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		level = DefaultLevel(algo)
	}
	if err := ValidateLevel(algo, level); err != nil {
		return nil, err
	}
	switch algo {
	case AlgorithmGzip:
		return gzip.NewWriterLevel(w, level)
	case AlgorithmBzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
	case AlgorithmXz:
		return xz.WriterConfig{DictCap: xzDictCaps[level]}.NewWriter(w)
	case AlgorithmZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	case AlgorithmLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, err
		}
		return zw, nil
	case AlgorithmBrotli:
		return brotli.NewWriterLevel(w, level), nil
	case AlgorithmSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// createDecompressor creates a decompressor for the specified algorithm
func createDecompressor(algo Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch algo {
	case AlgorithmGzip:
		return gzip.NewReader(r)
	case AlgorithmBzip2:
		return bzip2.NewReader(r, nil)
	case AlgorithmXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case AlgorithmZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return decoder.IOReadCloser(), nil
	case AlgorithmLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case AlgorithmBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case AlgorithmSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}
