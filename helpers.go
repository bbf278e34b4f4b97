package convertfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/absfs/absfs"
	"gopkg.in/yaml.v3"
)

// Preset configurations for common use cases

// FastestConfig writes every codec at its fastest non-default level.
func FastestConfig() *Config {
	return &Config{
		Levels: map[Algorithm]int{
			AlgorithmGzip:   1,
			AlgorithmBzip2:  1,
			AlgorithmXz:     1,
			AlgorithmZstd:   1,
			AlgorithmLZ4:    1,
			AlgorithmBrotli: 1,
		},
		BufferSize: 64 * 1024,
	}
}

// BestCompressionConfig writes every codec at its strongest level.
// Use for write-once/read-many archives.
func BestCompressionConfig() *Config {
	return &Config{
		Levels: map[Algorithm]int{
			AlgorithmGzip:   9,
			AlgorithmBzip2:  9,
			AlgorithmXz:     9,
			AlgorithmZstd:   22,
			AlgorithmLZ4:    9,
			AlgorithmBrotli: 11,
		},
		BufferSize: 128 * 1024,
	}
}

// LoadConfig reads a YAML config from name on fsys. Fields missing from the
// file keep their DefaultConfig values.
//
//	levels:
//	  gzip: 6
//	  zstd: 3
//	buffer_size: 131072
func LoadConfig(fsys absfs.Filer, name string) (*Config, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", name, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, name, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return config, nil
}

// CompressBytes compresses a byte slice using the specified algorithm and level
func CompressBytes(data []byte, algo Algorithm, level int) ([]byte, error) {
	var buf bytes.Buffer
	compressor, err := createCompressor(algo, &buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := compressor.Write(data); err != nil {
		compressor.Close()
		return nil, err
	}
	if err := compressor.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressBytes decompresses a byte slice using the specified algorithm
func DecompressBytes(data []byte, algo Algorithm) ([]byte, error) {
	if _, ok := magicBytes[algo]; ok && len(data) > 0 {
		if detected, _ := DetectAlgorithm(bytes.NewReader(data)); detected != algo {
			return nil, ErrCorruptedData
		}
	}

	decompressor, err := createDecompressor(algo, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer decompressor.Close()

	return io.ReadAll(decompressor)
}
