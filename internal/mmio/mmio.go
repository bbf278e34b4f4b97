// Package mmio reads and writes real matrices in the NIST Matrix Market
// exchange format.
package mmio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/absfs/convertfs/sparse"
)

// ErrFormat is returned for malformed or unsupported Matrix Market content.
var ErrFormat = errors.New("mmio: invalid matrix market data")

const banner = "%%MatrixMarket"

// Layouts, fields and symmetries of the header line.
const (
	Coordinate = "coordinate"
	Array      = "array"

	Real    = "real"
	Double  = "double"
	Integer = "integer"
	Pattern = "pattern"

	General       = "general"
	Symmetric     = "symmetric"
	SkewSymmetric = "skew-symmetric"
)

// Header is the parsed banner line.
type Header struct {
	Layout   string
	Field    string
	Symmetry string
}

type scanner struct {
	sc   *bufio.Scanner
	line int
}

// next returns the fields of the next line that is not a comment or blank.
func (s *scanner) next() ([]string, error) {
	for s.sc.Scan() {
		s.line++
		text := strings.TrimSpace(s.sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		return strings.Fields(text), nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, s.line, fmt.Sprintf(format, args...))
}

func readHeader(s *scanner) (Header, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return Header{}, err
		}
		return Header{}, fmt.Errorf("%w: empty input", ErrFormat)
	}
	s.line++
	fields := strings.Fields(s.sc.Text())
	if len(fields) != 5 || fields[0] != banner || !strings.EqualFold(fields[1], "matrix") {
		return Header{}, s.errorf("bad banner %q", s.sc.Text())
	}

	h := Header{
		Layout:   strings.ToLower(fields[2]),
		Field:    strings.ToLower(fields[3]),
		Symmetry: strings.ToLower(fields[4]),
	}
	switch h.Layout {
	case Coordinate, Array:
	default:
		return h, s.errorf("unsupported layout %q", h.Layout)
	}
	switch h.Field {
	case Real, Double, Integer:
	case Pattern:
		if h.Layout == Array {
			return h, s.errorf("pattern field with array layout")
		}
	default:
		return h, s.errorf("unsupported field %q", h.Field)
	}
	switch h.Symmetry {
	case General, Symmetric, SkewSymmetric:
	default:
		return h, s.errorf("unsupported symmetry %q", h.Symmetry)
	}
	return h, nil
}

func atoi(s *scanner, tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, s.errorf("bad integer %q", tok)
	}
	return n, nil
}

func atof(s *scanner, tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		var ne *strconv.NumError
		if !errors.As(err, &ne) || ne.Err != strconv.ErrRange {
			return 0, s.errorf("bad value %q", tok)
		}
	}
	return v, nil
}

// Read decodes a matrix. The result is in COO format with symmetric and
// skew-symmetric storage expanded.
func Read(r io.Reader) (*sparse.Matrix, error) {
	s := &scanner{sc: bufio.NewScanner(r)}
	s.sc.Buffer(make([]byte, 64*1024), 1<<20)

	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}

	size, err := s.next()
	if err != nil {
		return nil, s.errorf("missing size line: %v", err)
	}
	want := 3
	if h.Layout == Array {
		want = 2
	}
	if len(size) != want {
		return nil, s.errorf("size line has %d fields, want %d", len(size), want)
	}
	dims := make([]int, want)
	for i, tok := range size {
		if dims[i], err = atoi(s, tok); err != nil {
			return nil, err
		}
	}
	rows, cols := dims[0], dims[1]
	if h.Symmetry != General && rows != cols {
		return nil, s.errorf("%s matrix is %dx%d", h.Symmetry, rows, cols)
	}

	var row, col []int
	var data []float64
	add := func(i, j int, v float64) {
		row, col, data = append(row, i), append(col, j), append(data, v)
		switch {
		case i == j:
		case h.Symmetry == Symmetric:
			row, col, data = append(row, j), append(col, i), append(data, v)
		case h.Symmetry == SkewSymmetric:
			row, col, data = append(row, j), append(col, i), append(data, -v)
		}
	}

	if h.Layout == Coordinate {
		err = readCoordinate(s, h, rows, cols, dims[2], add)
	} else {
		err = readArray(s, h, rows, cols, add)
	}
	if err != nil {
		return nil, err
	}

	m, err := sparse.NewCOO(rows, cols, row, col, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return m, nil
}

func readCoordinate(s *scanner, h Header, rows, cols, nnz int, add func(i, j int, v float64)) error {
	want := 3
	if h.Field == Pattern {
		want = 2
	}
	for k := 0; k < nnz; k++ {
		fields, err := s.next()
		if err != nil {
			return s.errorf("entry %d of %d: %v", k+1, nnz, err)
		}
		if len(fields) != want {
			return s.errorf("entry has %d fields, want %d", len(fields), want)
		}
		i, err := atoi(s, fields[0])
		if err != nil {
			return err
		}
		j, err := atoi(s, fields[1])
		if err != nil {
			return err
		}
		if i < 1 || i > rows || j < 1 || j > cols {
			return s.errorf("entry (%d, %d) outside %dx%d", i, j, rows, cols)
		}
		v := 1.0
		if h.Field != Pattern {
			if v, err = atof(s, fields[2]); err != nil {
				return err
			}
		}
		add(i-1, j-1, v)
	}
	return nil
}

// readArray reads column-major dense values. Symmetric storage holds the
// lower triangle, skew-symmetric the strict lower triangle.
func readArray(s *scanner, h Header, rows, cols int, add func(i, j int, v float64)) error {
	for j := 0; j < cols; j++ {
		start := 0
		switch h.Symmetry {
		case Symmetric:
			start = j
		case SkewSymmetric:
			start = j + 1
		}
		for i := start; i < rows; i++ {
			fields, err := s.next()
			if err != nil {
				return s.errorf("value (%d, %d): %v", i+1, j+1, err)
			}
			if len(fields) != 1 {
				return s.errorf("array line has %d fields, want 1", len(fields))
			}
			v, err := atof(s, fields[0])
			if err != nil {
				return err
			}
			add(i, j, v)
		}
	}
	return nil
}

// Write encodes m in coordinate layout with a real field. Symmetric and
// skew-symmetric matrices store their lower triangle only.
func Write(w io.Writer, m *sparse.Matrix) error {
	symmetry := General
	switch {
	case m.IsSkewSymmetric():
		symmetry = SkewSymmetric
	case m.NNZ() > 0 && m.IsSymmetric():
		symmetry = Symmetric
	}

	type entry struct {
		i, j int
		v    float64
	}
	var entries []entry
	m.Entries(func(i, j int, v float64) {
		if symmetry == General || i >= j {
			entries = append(entries, entry{i, j, v})
		}
	})

	rows, cols := m.Dims()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s matrix %s %s %s\n", banner, Coordinate, Real, symmetry)
	fmt.Fprintf(bw, "%%\n")
	fmt.Fprintf(bw, "%d %d %d\n", rows, cols, len(entries))
	buf := make([]byte, 0, 64)
	for _, e := range entries {
		buf = strconv.AppendInt(buf[:0], int64(e.i+1), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(e.j+1), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, e.v, 'e', 16, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
