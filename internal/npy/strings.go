package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadString decodes a 0-d or single-element byte string (|S) or unicode
// (<U, >U) array.
func ReadString(r io.Reader) (string, error) {
	h, _, err := ReadHeader(r)
	if err != nil {
		return "", err
	}
	if len(h.Descr) < 3 {
		return "", fmt.Errorf("%w: descr %q", ErrFormat, h.Descr)
	}
	width, err := strconv.Atoi(h.Descr[2:])
	if err != nil || width < 0 || width > 1<<20 {
		return "", fmt.Errorf("%w: size in %q", ErrFormat, h.Descr)
	}
	for _, d := range h.Shape {
		if d != 1 {
			return "", fmt.Errorf("%w: string array of shape %v", ErrFormat, h.Shape)
		}
	}

	switch h.Descr[1] {
	case 'S':
		raw := make([]byte, width)
		if _, err := io.ReadFull(r, raw); err != nil {
			return "", fmt.Errorf("%w: short string: %v", ErrFormat, err)
		}
		return string(bytes.TrimRight(raw, "\x00")), nil
	case 'U':
		raw := make([]byte, 4*width)
		if _, err := io.ReadFull(r, raw); err != nil {
			return "", fmt.Errorf("%w: short string: %v", ErrFormat, err)
		}
		var order binary.ByteOrder = binary.LittleEndian
		if h.Descr[0] == '>' {
			order = binary.BigEndian
		}
		var sb strings.Builder
		for i := 0; i < width; i++ {
			c := rune(order.Uint32(raw[4*i:]))
			if c == 0 {
				break
			}
			sb.WriteRune(c)
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("%w: %q is not a string dtype", ErrFormat, h.Descr)
	}
}

// WriteString encodes s as a 0-d byte string array, the layout SciPy uses
// for the format member of a sparse archive. npyio has no byte-string
// dtype, so the version 1.0 preamble is written here.
func WriteString(w io.Writer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string is not UTF-8", ErrFormat)
	}
	dict := fmt.Sprintf("{'descr': '|S%d', 'fortran_order': False, 'shape': (), }", len(s))
	// magic, version, length, dict and newline end on a 64-byte boundary
	if pad := (64 - (10+len(dict)+1)%64) % 64; pad > 0 {
		dict += strings.Repeat(" ", pad)
	}
	dict += "\n"

	pre := make([]byte, 0, 10)
	pre = append(pre, Magic...)
	pre = append(pre, 1, 0)
	pre = binary.LittleEndian.AppendUint16(pre, uint16(len(dict)))
	if _, err := w.Write(pre); err != nil {
		return err
	}
	if _, err := io.WriteString(w, dict); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}
