// Package npz reads and writes NumPy .npz archives: zip files whose members
// are .npy streams.
package npz

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/absfs/convertfs/array"
	"github.com/absfs/convertfs/internal/npy"
	"github.com/klauspost/compress/zip"
)

// ErrFormat is returned for archives that are not valid .npz files.
var ErrFormat = errors.New("npz: invalid archive")

// Member is one named entry. Data holds the raw .npy stream.
type Member struct {
	Name string
	Data []byte
}

// Read loads every member of the archive in stored order. Member names
// lose their ".npy" suffix.
func Read(r io.Reader) ([]Member, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	members := make([]Member, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrFormat, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrFormat, f.Name, err)
		}
		members = append(members, Member{Name: strings.TrimSuffix(f.Name, ".npy"), Data: data})
	}
	return members, nil
}

// Write stores members deflate-compressed, appending ".npy" to each name.
func Write(w io.Writer, members []Member) error {
	zw := zip.NewWriter(w)
	for _, m := range members {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: m.Name + ".npy", Method: zip.Deflate})
		if err != nil {
			return err
		}
		if _, err := fw.Write(m.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Find returns the member named name.
func Find(members []Member, name string) (Member, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Array decodes a member as a numeric array.
func (m Member) Array() (*array.Array, error) {
	a, err := npy.Read(bytes.NewReader(m.Data))
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", m.Name, err)
	}
	return a, nil
}

// Text decodes a member as a string scalar.
func (m Member) Text() (string, error) {
	s, err := npy.ReadString(bytes.NewReader(m.Data))
	if err != nil {
		return "", fmt.Errorf("member %s: %w", m.Name, err)
	}
	return s, nil
}

// ArrayMember encodes a as a member.
func ArrayMember(name string, a *array.Array) (Member, error) {
	var buf bytes.Buffer
	if err := npy.Write(&buf, a); err != nil {
		return Member{}, err
	}
	return Member{Name: name, Data: buf.Bytes()}, nil
}

// StringMember encodes s as a byte string member.
func StringMember(name, s string) (Member, error) {
	var buf bytes.Buffer
	if err := npy.WriteString(&buf, s); err != nil {
		return Member{}, err
	}
	return Member{Name: name, Data: buf.Bytes()}, nil
}
