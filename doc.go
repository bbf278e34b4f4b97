// Package convertfs loads, saves and converts array and matrix files whose
// format is chosen by file-name extension.
//
// A Converter holds an immutable Registry of Backends. Each backend owns a
// list of extensions: native ones such as ".npy" or ".mtx", and composites
// that add a compression suffix (".npy.gz", ".mtx.zst"). A path is matched
// by its longest registered suffix, the compression suffix is split off and
// the file is opened through the codec before the backend sees the stream.
//
// # Compression
//
// Suffixes and codecs, in composite order:
//
//   - .gz   gzip (klauspost/compress)
//   - .bz2  bzip2 (dsnet/compress)
//   - .xz   xz/LZMA2 (ulikunitz/xz)
//   - .zst  zstd (klauspost/compress)
//   - .lz4  lz4 frame (pierrec/lz4)
//   - .br   brotli (andybalholm/brotli)
//   - .sz   snappy framed (golang/snappy)
//
// Writes use each family's high-compression level unless Config.Levels
// overrides it. Reads check magic bytes where the format has them.
//
// # Quick Start
//
//	import (
//	    "github.com/absfs/convertfs"
//	    "github.com/absfs/convertfs/format/all"
//	)
//
//	fsys, _ := convertfs.NewOSFS()
//	conv, _ := all.New(fsys, nil)
//
//	// a.npy -> a.txt.gz
//	out, err := conv.ConvertFileExtension("a.npy", ".txt.gz")
//
// Conversions are only allowed between extensions of the same backend;
// arrays never turn into sparse matrices or back.
package convertfs
