package convertfs

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/absfs/absfs"
	"go.uber.org/zap"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	AlgorithmGzip   Algorithm = "gzip"
	AlgorithmBzip2  Algorithm = "bzip2"
	AlgorithmXz     Algorithm = "xz"
	AlgorithmZstd   Algorithm = "zstd"
	AlgorithmLZ4    Algorithm = "lz4"
	AlgorithmBrotli Algorithm = "brotli"
	AlgorithmSnappy Algorithm = "snappy"
)

// Mode tells whether a native extension is read and written as text or as
// raw bytes.
type Mode int

const (
	ModeBinary Mode = iota
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "t"
	}
	return "b"
}

// Config holds converter configuration
type Config struct {
	// Per-algorithm write level. Missing or zero entries use the family's
	// high-compression default.
	// gzip: 1-9, bzip2: 1-9, xz: 1-9 (preset), zstd: 1-22,
	// lz4: 1-9, brotli: 1-11, snappy: ignored
	Levels map[Algorithm]int `yaml:"levels,omitempty"`

	// Buffer size for text-mode streams (default: 64KB)
	BufferSize int `yaml:"buffer_size,omitempty"`

	// Logger receives debug events. Nil disables logging.
	Logger *zap.Logger `yaml:"-"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Levels:     map[Algorithm]int{},
		BufferSize: 64 * 1024, // 64KB
	}
}

// Validate checks every configured level against its algorithm.
func (c *Config) Validate() error {
	for algo, level := range c.Levels {
		if err := ValidateLevel(algo, level); err != nil {
			return err
		}
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: buffer_size must not be negative, got %d", ErrInvalidConfig, c.BufferSize)
	}
	return nil
}

// Level returns the write level for algo.
func (c *Config) Level(algo Algorithm) int {
	if level := c.Levels[algo]; level != 0 {
		return level
	}
	return DefaultLevel(algo)
}

// Stats holds conversion statistics
type Stats struct {
	FilesLoaded       int64
	FilesSaved        int64
	FilesConverted    int64
	FilesCompressed   int64
	FilesDecompressed int64

	BytesRead    int64
	BytesWritten int64

	AlgorithmCounts sync.Map // map[Algorithm]int64
}

// GetAlgorithmCount returns the count for a specific algorithm
func (s *Stats) GetAlgorithmCount(algo Algorithm) int64 {
	if val, ok := s.AlgorithmCounts.Load(algo); ok {
		return val.(*atomic.Int64).Load()
	}
	return 0
}

// IncrementAlgorithmCount increments the count for a specific algorithm
func (s *Stats) IncrementAlgorithmCount(algo Algorithm) {
	val, _ := s.AlgorithmCounts.LoadOrStore(algo, new(atomic.Int64))
	val.(*atomic.Int64).Add(1)
}

var (
	ErrUnsupportedFileExtension = errors.New("convertfs: unsupported file extension")
	ErrUnsupportedConversion    = errors.New("convertfs: unsupported conversion")
	ErrUnsupportedAlgorithm     = errors.New("convertfs: unsupported compression algorithm")
	ErrUnsupportedValue         = errors.New("convertfs: unsupported value type")
	ErrNotCompressed            = errors.New("convertfs: no compression suffix")
	ErrInvalidLevel             = errors.New("convertfs: invalid compression level")
	ErrInvalidConfig            = errors.New("convertfs: invalid configuration")
	ErrCorruptedData            = errors.New("convertfs: corrupted compressed data")
	ErrDuplicateExtension       = errors.New("convertfs: extension registered twice")
	ErrMissingMode              = errors.New("convertfs: native extension without mode")
	ErrNoBackends               = errors.New("convertfs: no backends")
)

// Converter loads, saves and converts files whose format is chosen by
// extension.
type Converter struct {
	fs       absfs.Filer
	registry *Registry
	config   *Config
	logger   *zap.Logger
	stats    Stats
	mu       sync.RWMutex
}

// New creates a converter over fsys for the given backends. A nil fsys uses
// the host filesystem; a nil config uses DefaultConfig.
func New(fsys absfs.Filer, config *Config, backends ...Backend) (*Converter, error) {
	if fsys == nil {
		host, err := NewOSFS()
		if err != nil {
			return nil, err
		}
		fsys = host
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry, err := NewRegistry(backends...)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Converter{
		fs:       fsys,
		registry: registry,
		config:   config,
		logger:   logger,
	}, nil
}

// Registry returns the converter's extension registry.
func (c *Converter) Registry() *Registry {
	return c.registry
}

// Extensions returns every supported extension in registration order.
func (c *Converter) Extensions() []string {
	return c.registry.Extensions()
}

// GetStats returns current statistics
func (c *Converter) GetStats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := &Stats{
		FilesLoaded:       atomic.LoadInt64(&c.stats.FilesLoaded),
		FilesSaved:        atomic.LoadInt64(&c.stats.FilesSaved),
		FilesConverted:    atomic.LoadInt64(&c.stats.FilesConverted),
		FilesCompressed:   atomic.LoadInt64(&c.stats.FilesCompressed),
		FilesDecompressed: atomic.LoadInt64(&c.stats.FilesDecompressed),
		BytesRead:         atomic.LoadInt64(&c.stats.BytesRead),
		BytesWritten:      atomic.LoadInt64(&c.stats.BytesWritten),
	}
	c.stats.AlgorithmCounts.Range(func(k, v any) bool {
		n := new(atomic.Int64)
		n.Store(v.(*atomic.Int64).Load())
		s.AlgorithmCounts.Store(k, n)
		return true
	})
	return s
}

// ResetStats resets statistics to zero
func (c *Converter) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	atomic.StoreInt64(&c.stats.FilesLoaded, 0)
	atomic.StoreInt64(&c.stats.FilesSaved, 0)
	atomic.StoreInt64(&c.stats.FilesConverted, 0)
	atomic.StoreInt64(&c.stats.FilesCompressed, 0)
	atomic.StoreInt64(&c.stats.FilesDecompressed, 0)
	atomic.StoreInt64(&c.stats.BytesRead, 0)
	atomic.StoreInt64(&c.stats.BytesWritten, 0)
	c.stats.AlgorithmCounts.Clear()
}

// incrementStat atomically increments a stat counter
func (c *Converter) incrementStat(counter *int64) {
	atomic.AddInt64(counter, 1)
}

// addBytes atomically adds to a byte counter
func (c *Converter) addBytes(counter *int64, n int64) {
	atomic.AddInt64(counter, n)
}
