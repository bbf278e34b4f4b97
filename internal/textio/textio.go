// Package textio reads and writes whitespace-delimited numeric text tables
// in the layout of numpy.savetxt and numpy.loadtxt.
package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/absfs/convertfs/array"
)

var (
	// ErrDecode is returned when a token is neither a real nor a complex
	// number.
	ErrDecode = errors.New("textio: cannot decode value")

	// ErrFormat is returned for tables with rows of different widths.
	ErrFormat = errors.New("textio: malformed table")
)

// Comment starts a line that is skipped on read.
const Comment = "#"

const maxLine = 16 << 20

// table is the tokenized content: rows of equal width.
type table struct {
	rows [][]string
	cols int
}

func tokenize(r io.Reader) (*table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	t := &table{}
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, Comment); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(t.rows) == 0 {
			t.cols = len(fields)
		} else if len(fields) != t.cols {
			return nil, fmt.Errorf("%w: line %d has %d columns, want %d", ErrFormat, line, len(fields), t.cols)
		}
		t.rows = append(t.rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *table) shape() []int {
	if len(t.rows) == 0 {
		return []int{0}
	}
	return []int{len(t.rows), t.cols}
}

// badToken is the first token that failed to parse.
type badToken struct {
	row, col int
	text     string
}

func (b *badToken) err() error {
	return fmt.Errorf("%w: %q at row %d, column %d", ErrDecode, b.text, b.row+1, b.col+1)
}

// parseReal returns nil values and the failing token when some token is
// not a real number.
func (t *table) parseReal() ([]float64, *badToken) {
	out := make([]float64, 0, len(t.rows)*t.cols)
	for i, row := range t.rows {
		for j, tok := range row {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil && !isRange(err) {
				return nil, &badToken{row: i, col: j, text: tok}
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (t *table) parseComplex() ([]complex128, *badToken) {
	out := make([]complex128, 0, len(t.rows)*t.cols)
	for i, row := range t.rows {
		for j, tok := range row {
			v, err := ParseComplex(tok)
			if err != nil {
				return nil, &badToken{row: i, col: j, text: tok}
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func isRange(err error) bool {
	var ne *strconv.NumError
	return errors.As(err, &ne) && ne.Err == strconv.ErrRange
}

// ParseComplex parses a Python-style complex literal such as "(1+2j)",
// "1-2j", "3j", "(1+-2j)" or a plain real number.
func ParseComplex(s string) (complex128, error) {
	t := strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	t = strings.ReplaceAll(t, "+-", "-")
	t = strings.ReplaceAll(t, "-+", "-")
	if n := len(t); n > 0 && (t[n-1] == 'j' || t[n-1] == 'J') {
		t = t[:n-1] + "i"
	}
	v, err := strconv.ParseComplex(t, 128)
	if err != nil && !isRange(err) {
		return 0, fmt.Errorf("%w: %q", ErrDecode, s)
	}
	return v, nil
}

// Read decodes a table. Values are read as real numbers first and as
// complex numbers only when some token is not a real number. Single rows,
// single columns and single values are squeezed, and an empty table is a
// zero-length 1-D array.
func Read(r io.Reader) (*array.Array, error) {
	t, err := tokenize(r)
	if err != nil {
		return nil, err
	}

	var a *array.Array
	if floats, bad := t.parseReal(); bad == nil {
		a, err = array.NewFloat64(t.shape(), floats)
	} else if complexes, bad := t.parseComplex(); bad == nil {
		a, err = array.NewComplex128(t.shape(), complexes)
	} else {
		return nil, bad.err()
	}
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return a, nil
	}
	return a.Squeeze(), nil
}

// Write encodes a 1-D or 2-D array, one row per line. A 1-D array is
// written one value per line. Values use %.18e; complex values are
// written as (re±imj).
func Write(w io.Writer, a *array.Array) error {
	shape := a.Shape()
	var rows, cols int
	switch len(shape) {
	case 1:
		rows, cols = shape[0], 1
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return fmt.Errorf("%w: %d-D array in a text table", array.ErrShape, len(shape))
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64*cols)
	for i := 0; i < rows; i++ {
		buf = buf[:0]
		for j := 0; j < cols; j++ {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = appendValue(buf, a, i*cols+j)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendValue(buf []byte, a *array.Array, i int) []byte {
	if a.DType() != array.Complex128 {
		return strconv.AppendFloat(buf, real(a.Complex(i)), 'e', 18, 64)
	}
	v := a.Complex128s()[i]
	buf = append(buf, '(')
	buf = strconv.AppendFloat(buf, real(v), 'e', 18, 64)
	im := strconv.FormatFloat(imag(v), 'e', 18, 64)
	if im[0] != '+' && im[0] != '-' {
		buf = append(buf, '+')
	}
	buf = append(buf, im...)
	return append(buf, 'j', ')')
}
