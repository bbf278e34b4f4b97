package convertfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"testing"
	"time"
)

func writeMemFile(t *testing.T, base *memFS, name, content string) {
	t.Helper()
	f, err := base.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatalf("Create %s failed: %v", name, err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("Write %s failed: %v", name, err)
	}
	f.Close()
}

func TestMemFSOperations(t *testing.T) {
	base := NewMemFS().(*memFS)

	if err := base.Mkdir("testdir", 0o755); err != nil {
		t.Errorf("Mkdir failed: %v", err)
	}
	if err := base.Mkdir("testdir", 0o755); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Expected fs.ErrExist, got %v", err)
	}

	writeMemFile(t, base, "testdir/test.txt", "test data")

	info, err := base.Stat("/testdir/test.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 9 || info.Name() != "test.txt" || info.IsDir() {
		t.Errorf("Unexpected info: %s %d %v", info.Name(), info.Size(), info.IsDir())
	}

	if err := base.Rename("testdir/test.txt", "renamed.txt"); err != nil {
		t.Errorf("Rename failed: %v", err)
	}
	if _, err := base.Stat("testdir/test.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Old name still exists: %v", err)
	}
	data, err := base.ReadFile("renamed.txt")
	if err != nil || string(data) != "test data" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}

	if err := base.Chmod("renamed.txt", 0o600); err != nil {
		t.Errorf("Chmod failed: %v", err)
	}
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := base.Chtimes("renamed.txt", mtime, mtime); err != nil {
		t.Errorf("Chtimes failed: %v", err)
	}
	if err := base.Chown("renamed.txt", 1, 1); err != nil {
		t.Errorf("Chown failed: %v", err)
	}
	info, _ = base.Stat("renamed.txt")
	if info.Mode() != 0o600 || !info.ModTime().Equal(mtime) {
		t.Errorf("Unexpected mode %v or time %v", info.Mode(), info.ModTime())
	}

	if err := base.Remove("renamed.txt"); err != nil {
		t.Errorf("Remove failed: %v", err)
	}
	if err := base.Remove("renamed.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
	if err := base.Chmod("renamed.txt", 0o600); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestMemFSOpenFileFlags(t *testing.T) {
	base := NewMemFS().(*memFS)

	if _, err := base.OpenFile("missing.txt", os.O_RDONLY, 0); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}

	writeMemFile(t, base, "file.txt", "hello")
	if _, err := base.OpenFile("file.txt", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Expected fs.ErrExist, got %v", err)
	}

	f, err := base.OpenFile("file.txt", os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(" world"))
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Expected fs.ErrPermission reading a write-only file, got %v", err)
	}
	f.Close()

	data, _ := base.ReadFile("file.txt")
	if string(data) != "hello world" {
		t.Errorf("Append produced %q", data)
	}

	f, _ = base.OpenFile("file.txt", os.O_RDONLY, 0)
	if _, err := f.Write([]byte("x")); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("Expected fs.ErrPermission writing a read-only file, got %v", err)
	}
	f.Close()
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Expected fs.ErrClosed, got %v", err)
	}

	writeMemFile(t, base, "file.txt", "new")
	data, _ = base.ReadFile("file.txt")
	if string(data) != "new" {
		t.Errorf("Truncate produced %q", data)
	}
}

func TestMemFileSeekReadAtWriteAt(t *testing.T) {
	base := NewMemFS().(*memFS)
	writeMemFile(t, base, "file.bin", "0123456789")

	f, err := base.OpenFile("file.bin", os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if pos, err := f.Seek(-3, io.SeekEnd); err != nil || pos != 7 {
		t.Fatalf("Seek = %d, %v", pos, err)
	}
	buf := make([]byte, 3)
	if n, err := f.Read(buf); err != nil || string(buf[:n]) != "789" {
		t.Errorf("Read after seek = %q, %v", buf[:n], err)
	}
	if _, err := f.Read(buf); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}

	if n, err := f.ReadAt(buf, 2); err != nil || string(buf[:n]) != "234" {
		t.Errorf("ReadAt = %q, %v", buf[:n], err)
	}
	if _, err := f.WriteAt([]byte("ab"), 12); err != nil {
		t.Fatal(err)
	}
	data, _ := base.ReadFile("file.bin")
	if string(data) != "0123456789\x00\x00ab" {
		t.Errorf("WriteAt produced %q", data)
	}

	if err := f.Truncate(4); err != nil {
		t.Fatal(err)
	}
	info, _ := f.Stat()
	if info.Size() != 4 {
		t.Errorf("Expected size 4, got %d", info.Size())
	}
	if _, err := f.Seek(-1, io.SeekStart); err == nil {
		t.Error("Expected error seeking before start")
	}
	if f.Name() != "file.bin" || f.Sync() != nil {
		t.Error("Unexpected Name or Sync result")
	}
}

func TestMemFSReadDir(t *testing.T) {
	base := NewMemFS().(*memFS)
	writeMemFile(t, base, "b.txt", "b")
	writeMemFile(t, base, "a.txt", "a")
	writeMemFile(t, base, "sub/c.txt", "c")
	writeMemFile(t, base, "sub/deep/d.txt", "d")
	base.Mkdir("empty", 0o755)

	entries, err := base.ReadDir("/")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 4 || names[0] != "a.txt" || names[1] != "b.txt" || names[2] != "empty" || names[3] != "sub" {
		t.Errorf("Unexpected root listing %v", names)
	}

	dir, err := base.OpenFile("sub", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	subNames, err := dir.Readdirnames(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(subNames) != 2 || subNames[0] != "c.txt" || subNames[1] != "deep" {
		t.Errorf("Unexpected sub listing %v", subNames)
	}
	dir.Close()

	if _, err := base.ReadDir("missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
	if _, err := base.OpenFile("sub", os.O_WRONLY, 0); err == nil {
		t.Error("Expected error opening a directory for writing")
	}
}

func TestMemFSSub(t *testing.T) {
	base := NewMemFS().(*memFS)
	writeMemFile(t, base, "root/a.npy", "array")
	writeMemFile(t, base, "root/m/b.mtx", "matrix")

	sub, err := base.Sub("root")
	if err != nil {
		t.Fatal(err)
	}
	data, err := fs.ReadFile(sub, "m/b.mtx")
	if err != nil || string(data) != "matrix" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name() != "a.npy" || !entries[1].IsDir() {
		t.Errorf("Unexpected listing %v", entries)
	}

	if _, err := base.Sub("root/a.npy"); err == nil {
		t.Error("Expected error for a file root")
	}
}
