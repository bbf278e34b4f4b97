package convertfs

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCompressionSuffixes(t *testing.T) {
	want := []string{".gz", ".bz2", ".xz", ".zst", ".lz4", ".br", ".sz"}
	got := CompressionSuffixes()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("CompressionSuffixes() = %v, want %v", got, want)
	}
	for i, algo := range compressionOrder {
		if GetExtension(algo) != want[i] {
			t.Errorf("GetExtension(%s) = %q, want %q", algo, GetExtension(algo), want[i])
		}
	}
	if GetExtension("rar") != "" {
		t.Error("Unknown algorithm should have no extension")
	}
}

func TestComposite(t *testing.T) {
	got := Composite(".npy", ".txt")
	if len(got) != 14 {
		t.Fatalf("Expected 14 composites, got %d", len(got))
	}
	if got[0] != ".npy.gz" || got[6] != ".npy.sz" || got[7] != ".txt.gz" || got[13] != ".txt.sz" {
		t.Errorf("Unexpected composite order: %v", got)
	}
}

func TestResolveCompression(t *testing.T) {
	tests := []struct {
		ext  string
		algo Algorithm
	}{
		{".npy.gz", AlgorithmGzip},
		{".mtx.bz2", AlgorithmBzip2},
		{".txt.xz", AlgorithmXz},
		{".rua.zst", AlgorithmZstd},
		{".npy.lz4", AlgorithmLZ4},
		{".txt.br", AlgorithmBrotli},
		{".mtx.sz", AlgorithmSnappy},
		{".gz", AlgorithmGzip},
	}
	for _, tt := range tests {
		algo, err := ResolveCompression(tt.ext)
		if err != nil {
			t.Errorf("ResolveCompression(%q) failed: %v", tt.ext, err)
			continue
		}
		if algo != tt.algo {
			t.Errorf("ResolveCompression(%q) = %s, want %s", tt.ext, algo, tt.algo)
		}
	}

	for _, ext := range []string{".npy", ".csr.npz", ".gz.npy", ""} {
		if _, err := ResolveCompression(ext); !errors.Is(err, ErrNotCompressed) {
			t.Errorf("ResolveCompression(%q): expected ErrNotCompressed, got %v", ext, err)
		}
	}
}

func TestStripExtension(t *testing.T) {
	tests := []struct {
		name       string
		stripped   string
		algo       Algorithm
		compressed bool
	}{
		{"data.npy.gz", "data.npy", AlgorithmGzip, true},
		{"data.mtx.ZST", "data.mtx", AlgorithmZstd, true},
		{"dir.gz/data.txt", "dir.gz/data.txt", "", false},
		{".rua.br", ".rua", AlgorithmBrotli, true},
	}
	for _, tt := range tests {
		stripped, algo, ok := StripExtension(tt.name)
		if stripped != tt.stripped || algo != tt.algo || ok != tt.compressed {
			t.Errorf("StripExtension(%q) = %q, %q, %v", tt.name, stripped, algo, ok)
		}
		if _, err := ResolveCompression(tt.name); (err == nil) != tt.compressed {
			t.Errorf("ResolveCompression(%q) error = %v", tt.name, err)
		}
	}
}

func TestVerifyMagic(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		algo  Algorithm
		valid bool
	}{
		{"gzip", "\x1f\x8bpayload", AlgorithmGzip, true},
		{"gzip mismatch", "BZh9payload", AlgorithmGzip, false},
		{"zstd read as xz", "\x28\xb5\x2f\xfdpayload", AlgorithmXz, false},
		{"snappy", "\xff\x06\x00\x00sNaPpYpayload", AlgorithmSnappy, true},
		{"short", "\x1f", AlgorithmGzip, false},
		{"empty", "", AlgorithmZstd, true},
		{"brotli has no magic", "anything", AlgorithmBrotli, true},
	}
	for _, tt := range tests {
		br := bufio.NewReader(strings.NewReader(tt.data))
		err := verifyMagic(br, tt.algo)
		if tt.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.valid && !errors.Is(err, ErrCorruptedData) {
			t.Errorf("%s: expected ErrCorruptedData, got %v", tt.name, err)
		}
		if rest, _ := io.ReadAll(br); string(rest) != tt.data {
			t.Errorf("%s: verifyMagic consumed input, %q left", tt.name, rest)
		}
	}
}

func TestModeString(t *testing.T) {
	if ModeText.String() != "t" || ModeBinary.String() != "b" {
		t.Errorf("Unexpected mode strings %q and %q", ModeText, ModeBinary)
	}
}
