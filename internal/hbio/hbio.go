// Package hbio reads and writes real assembled matrices in the
// Harwell-Boeing exchange format.
//
// Matrices are stored by column. The writer emits type RUA; the reader
// accepts RUA, RSA, RZA and their pattern (P) counterparts, expanding
// symmetric storage.
package hbio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/absfs/convertfs/sparse"
)

// ErrFormat is returned for malformed or unsupported Harwell-Boeing content.
var ErrFormat = errors.New("hbio: invalid harwell-boeing data")

// Title and Key written to the first header line.
const (
	Title = "convertfs"
	Key   = "matrix"
)

// Header holds the four mandatory header lines.
type Header struct {
	Title, Key                     string
	TotCrd, PtrCrd, IndCrd, ValCrd int
	RhsCrd                         int
	Type                           string
	Rows, Cols, NNZ                int
	PtrFmt, IndFmt, ValFmt         string
}

func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[start:min(end, len(line))])
}

func readHeader(lines *lineReader) (Header, error) {
	var h Header

	l1, err := lines.next()
	if err != nil {
		return h, err
	}
	h.Title, h.Key = field(l1, 0, 72), field(l1, 72, 80)

	l2, err := lines.next()
	if err != nil {
		return h, err
	}
	counts := strings.Fields(l2)
	if len(counts) < 4 {
		return h, lines.errorf("card counts %q", l2)
	}
	cards := make([]int, 5)
	for i := range counts[:min(len(counts), 5)] {
		if cards[i], err = parseInt(counts[i]); err != nil {
			return h, err
		}
	}
	h.TotCrd, h.PtrCrd, h.IndCrd, h.ValCrd, h.RhsCrd = cards[0], cards[1], cards[2], cards[3], cards[4]

	l3, err := lines.next()
	if err != nil {
		return h, err
	}
	h.Type = strings.ToUpper(field(l3, 0, 3))
	dims := strings.Fields(field(l3, 3, len(l3)))
	if len(h.Type) != 3 || len(dims) < 3 {
		return h, lines.errorf("type and dimensions %q", l3)
	}
	if h.Rows, err = parseInt(dims[0]); err != nil {
		return h, err
	}
	if h.Cols, err = parseInt(dims[1]); err != nil {
		return h, err
	}
	if h.NNZ, err = parseInt(dims[2]); err != nil {
		return h, err
	}
	if h.Rows < 0 || h.Cols < 0 || h.NNZ < 0 {
		return h, lines.errorf("negative dimensions %q", l3)
	}

	l4, err := lines.next()
	if err != nil {
		return h, err
	}
	h.PtrFmt, h.IndFmt, h.ValFmt = field(l4, 0, 16), field(l4, 16, 32), field(l4, 32, 52)
	if h.PtrFmt == "" || h.IndFmt == "" {
		// Some writers separate formats by spaces rather than columns.
		f := strings.Fields(l4)
		if len(f) < 2 {
			return h, lines.errorf("formats %q", l4)
		}
		h.PtrFmt, h.IndFmt = f[0], f[1]
		if len(f) > 2 {
			h.ValFmt = f[2]
		}
	}

	if h.RhsCrd > 0 {
		if _, err := lines.next(); err != nil {
			return h, err
		}
	}
	return h, nil
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (l *lineReader) next() (string, error) {
	if l.sc.Scan() {
		l.line++
		return l.sc.Text(), nil
	}
	if err := l.sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: unexpected end after line %d", ErrFormat, l.line)
}

func (l *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, l.line, fmt.Sprintf(format, args...))
}

// readTokens reads n fixed-width tokens spread over as many lines as needed.
// The header counts are untrusted, so the result grows with the input.
func readTokens(lines *lineReader, f fortranFormat, n int) ([]string, error) {
	if n < 0 {
		return nil, lines.errorf("invalid value count %d", n)
	}
	out := make([]string, 0, min(n, 1024))
	for len(out) < n {
		line, err := lines.next()
		if err != nil {
			return nil, err
		}
		out = append(out, f.fields(line)...)
	}
	if len(out) != n {
		return nil, lines.errorf("read %d values, want %d", len(out), n)
	}
	return out, nil
}

// Read decodes a matrix in CSC format.
func Read(r io.Reader) (*sparse.Matrix, error) {
	lines := &lineReader{sc: bufio.NewScanner(r)}
	h, err := readHeader(lines)
	if err != nil {
		return nil, err
	}

	valued := h.Type[0] == 'R'
	if !valued && h.Type[0] != 'P' {
		return nil, fmt.Errorf("%w: unsupported value type in %q", ErrFormat, h.Type)
	}
	if h.Type[2] != 'A' {
		return nil, fmt.Errorf("%w: elemental matrix %q", ErrFormat, h.Type)
	}
	switch h.Type[1] {
	case 'U', 'R', 'S', 'Z':
	default:
		return nil, fmt.Errorf("%w: unsupported structure in %q", ErrFormat, h.Type)
	}

	ptrFmt, err := parseFormat(h.PtrFmt)
	if err != nil {
		return nil, err
	}
	indFmt, err := parseFormat(h.IndFmt)
	if err != nil {
		return nil, err
	}

	tokens, err := readTokens(lines, ptrFmt, h.Cols+1)
	if err != nil {
		return nil, err
	}
	indptr := make([]int, len(tokens))
	for i, tok := range tokens {
		p, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		indptr[i] = p - 1
	}

	tokens, err = readTokens(lines, indFmt, h.NNZ)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(tokens))
	for i, tok := range tokens {
		p, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		indices[i] = p - 1
	}

	data := make([]float64, len(indices))
	if valued && len(indices) > 0 {
		valFmt, err := parseFormat(h.ValFmt)
		if err != nil {
			return nil, err
		}
		tokens, err = readTokens(lines, valFmt, len(indices))
		if err != nil {
			return nil, err
		}
		for i, tok := range tokens {
			if data[i], err = parseFloat(tok); err != nil {
				return nil, err
			}
		}
	} else {
		for i := range data {
			data[i] = 1
		}
	}

	m, err := sparse.NewCSC(h.Rows, h.Cols, indptr, indices, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if sign := symmetrySign(h.Type[1]); sign != 0 {
		m, err = expandSymmetric(m, sign)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	return m, nil
}

func symmetrySign(structure byte) float64 {
	switch structure {
	case 'S':
		return 1
	case 'Z':
		return -1
	default:
		return 0
	}
}

// expandSymmetric mirrors the stored triangle across the diagonal.
func expandSymmetric(m *sparse.Matrix, sign float64) (*sparse.Matrix, error) {
	rows, cols := m.Dims()
	var row, col []int
	var data []float64
	m.Entries(func(i, j int, v float64) {
		row, col, data = append(row, i), append(col, j), append(data, v)
		if i != j {
			row, col, data = append(row, j), append(col, i), append(data, sign*v)
		}
	})
	full, err := sparse.NewCOO(rows, cols, row, col, data)
	if err != nil {
		return nil, err
	}
	return full.As(sparse.CSC)
}

// Write encodes m as a real unsymmetric assembled (RUA) matrix.
func Write(w io.Writer, m *sparse.Matrix) error {
	rows, cols := m.Dims()
	indptr, indices, data := m.CSC()
	nnz := len(data)

	ptrFmt, ptrText := intFormat(nnz + 1)
	indFmt, indText := intFormat(max(rows, 1))
	ptrCrd := ptrFmt.lines(cols + 1)
	indCrd := indFmt.lines(nnz)
	valCrd := valueFormat.lines(nnz)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%-72s%-8s\n", Title, Key)
	fmt.Fprintf(bw, "%14d%14d%14d%14d%14d\n", ptrCrd+indCrd+valCrd, ptrCrd, indCrd, valCrd, 0)
	fmt.Fprintf(bw, "%-3s%11s%14d%14d%14d%14d\n", "RUA", "", rows, cols, nnz, 0)
	fmt.Fprintf(bw, "%-16s%-16s%-20s%-20s\n", ptrText, indText, valueFormatText, "")

	writeInts(bw, ptrFmt, indptr)
	writeInts(bw, indFmt, indices)

	for k, v := range data {
		fmt.Fprintf(bw, "%*s", valueFormat.width, strconv.FormatFloat(v, 'E', valueFormat.digits, 64))
		if (k+1)%valueFormat.repeat == 0 || k == nnz-1 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// writeInts writes zero-based values one-based.
func writeInts(bw *bufio.Writer, f fortranFormat, values []int) {
	for k, v := range values {
		fmt.Fprintf(bw, "%*d", f.width, v+1)
		if (k+1)%f.repeat == 0 || k == len(values)-1 {
			bw.WriteByte('\n')
		}
	}
}
