package convertfs

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Suffix order is the order composites are generated in.
var compressionOrder = []Algorithm{
	AlgorithmGzip,
	AlgorithmBzip2,
	AlgorithmXz,
	AlgorithmZstd,
	AlgorithmLZ4,
	AlgorithmBrotli,
	AlgorithmSnappy,
}

// Extension mapping
var extensionMap = map[Algorithm]string{
	AlgorithmGzip:   ".gz",
	AlgorithmBzip2:  ".bz2",
	AlgorithmXz:     ".xz",
	AlgorithmZstd:   ".zst",
	AlgorithmLZ4:    ".lz4",
	AlgorithmBrotli: ".br",
	AlgorithmSnappy: ".sz",
}

// Reverse extension mapping (extension -> algorithm)
var reverseExtensionMap = map[string]Algorithm{
	".gz":  AlgorithmGzip,
	".bz2": AlgorithmBzip2,
	".xz":  AlgorithmXz,
	".zst": AlgorithmZstd,
	".lz4": AlgorithmLZ4,
	".br":  AlgorithmBrotli,
	".sz":  AlgorithmSnappy,
}

// Magic bytes for compression format detection. Brotli streams have no
// signature and are trusted by extension.
var magicBytes = map[Algorithm][]byte{
	AlgorithmGzip:   {0x1f, 0x8b},
	AlgorithmBzip2:  {'B', 'Z', 'h'},
	AlgorithmXz:     {0xfd, '7', 'z', 'X', 'Z', 0x00},
	AlgorithmZstd:   {0x28, 0xb5, 0x2f, 0xfd},
	AlgorithmLZ4:    {0x04, 0x22, 0x4d, 0x18},
	AlgorithmSnappy: {0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59},
}

const maxMagicLen = 10

// CompressionSuffixes returns the known compression suffixes in composite order.
func CompressionSuffixes() []string {
	suffixes := make([]string, 0, len(compressionOrder))
	for _, algo := range compressionOrder {
		suffixes = append(suffixes, extensionMap[algo])
	}
	return suffixes
}

// Composite returns every native extension followed by each compression
// suffix, grouped by native extension.
func Composite(natives ...string) []string {
	suffixes := CompressionSuffixes()
	out := make([]string, 0, len(natives)*len(suffixes))
	for _, native := range natives {
		for _, suffix := range suffixes {
			out = append(out, native+suffix)
		}
	}
	return out
}

// GetExtension returns the file extension for an algorithm
func GetExtension(algo Algorithm) string {
	if ext, ok := extensionMap[algo]; ok {
		return ext
	}
	return ""
}

// ResolveCompression returns the algorithm owning the outermost suffix of
// extension. It fails with ErrNotCompressed when there is none.
func ResolveCompression(extension string) (Algorithm, error) {
	if algo, ok := DetectAlgorithmFromExtension(extension); ok {
		return algo, nil
	}
	return "", ErrNotCompressed
}

// DetectAlgorithmFromExtension detects the algorithm from file extension
func DetectAlgorithmFromExtension(name string) (Algorithm, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if algo, ok := reverseExtensionMap[ext]; ok {
		return algo, true
	}
	return "", false
}

// DetectAlgorithm detects compression algorithm from magic bytes
func DetectAlgorithm(r io.Reader) (Algorithm, error) {
	buf := make([]byte, maxMagicLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	algo, _ := IsCompressed(buf[:n])
	return algo, nil
}

// StripExtension removes compression extension from filename
func StripExtension(name string) (string, Algorithm, bool) {
	ext := filepath.Ext(name)
	if algo, ok := reverseExtensionMap[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext), algo, true
	}
	return name, "", false
}

// IsCompressed checks if data appears to be compressed based on magic bytes
func IsCompressed(data []byte) (Algorithm, bool) {
	for _, algo := range compressionOrder {
		magic, ok := magicBytes[algo]
		if !ok {
			continue
		}
		if len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic) {
			return algo, true
		}
	}
	return "", false
}

// verifyMagic peeks at the head of br and fails with ErrCorruptedData when
// it does not carry algo's signature. Empty input is left to the codec.
func verifyMagic(br *bufio.Reader, algo Algorithm) error {
	if _, ok := magicBytes[algo]; !ok {
		return nil
	}
	head, err := br.Peek(maxMagicLen)
	if err != nil && err != io.EOF {
		return err
	}
	if len(head) == 0 {
		return nil
	}
	if detected, _ := DetectAlgorithm(bytes.NewReader(head)); detected != algo {
		return ErrCorruptedData
	}
	return nil
}
