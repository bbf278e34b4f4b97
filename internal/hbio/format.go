package hbio

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// fortranFormat is a single repeated Fortran edit descriptor such as
// (10I8) or (1P,3E26.16).
type fortranFormat struct {
	repeat int
	kind   byte // I, E, D, F or G
	width  int
	digits int
}

var (
	scaleRe      = regexp.MustCompile(`^-?\d+P,?`)
	descriptorRe = regexp.MustCompile(`^(\d*)([IEDFG])(\d+)(?:\.(\d+))?(?:E\d+)?$`)
)

func parseFormat(s string) (fortranFormat, error) {
	t := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	t = strings.TrimSuffix(strings.TrimPrefix(t, "("), ")")
	t = scaleRe.ReplaceAllString(t, "")

	m := descriptorRe.FindStringSubmatch(t)
	if m == nil {
		return fortranFormat{}, fmt.Errorf("%w: unsupported Fortran format %q", ErrFormat, s)
	}
	f := fortranFormat{repeat: 1, kind: m[2][0]}
	if m[1] != "" {
		f.repeat, _ = strconv.Atoi(m[1])
	}
	f.width, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		f.digits, _ = strconv.Atoi(m[4])
	}
	if f.repeat <= 0 || f.width <= 0 {
		return fortranFormat{}, fmt.Errorf("%w: empty Fortran format %q", ErrFormat, s)
	}
	return f, nil
}

// lines returns how many lines n values occupy.
func (f fortranFormat) lines(n int) int {
	return (n + f.repeat - 1) / f.repeat
}

// fields splits a line into at most repeat fields of width characters.
// Short lines yield fewer fields.
func (f fortranFormat) fields(line string) []string {
	out := make([]string, 0, f.repeat)
	for k := 0; k < f.repeat; k++ {
		start := k * f.width
		if start >= len(line) {
			break
		}
		end := min(start+f.width, len(line))
		if tok := strings.TrimSpace(line[start:end]); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// intFormat returns an integer format wide enough for largest.
func intFormat(largest int) (fortranFormat, string) {
	width := len(strconv.Itoa(largest)) + 1
	repeat := max(80/width, 1)
	return fortranFormat{repeat: repeat, kind: 'I', width: width},
		fmt.Sprintf("(%dI%d)", repeat, width)
}

// valueFormat writes 17 significant digits, enough to round-trip float64.
var valueFormat = fortranFormat{repeat: 3, kind: 'E', width: 26, digits: 16}

const valueFormatText = "(1P,3E26.16)"

func parseInt(tok string) (int, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: bad integer %q", ErrFormat, tok)
	}
	return n, nil
}

func parseFloat(tok string) (float64, error) {
	t := strings.NewReplacer("D", "E", "d", "e").Replace(tok)
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad value %q", ErrFormat, tok)
	}
	return v, nil
}
