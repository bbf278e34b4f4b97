package convertfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

// normalizePath cleans name and drops leading slashes so absolute and
// relative spellings of a path share one key.
func normalizePath(name string) string {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimLeft(name, "/")
	if name == "" {
		name = "."
	}
	return name
}

// memFS is a flat in-memory filesystem. Directories exist implicitly for
// every stored file and explicitly after Mkdir.
type memFS struct {
	files map[string]*memNode
	dirs  map[string]fs.FileMode
	mu    sync.RWMutex
}

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() absfs.Filer {
	return &memFS{
		files: make(map[string]*memNode),
		dirs:  map[string]fs.FileMode{".": fs.ModeDir | 0o755},
	}
}

// memNode is the content shared by every handle to one file.
type memNode struct {
	mu      sync.RWMutex
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

func (n *memNode) info(name string) *memFileInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return &memFileInfo{name: path.Base(name), size: int64(len(n.data)), mode: n.mode, modTime: n.modTime}
}

// isDir reports whether name is a directory. Callers hold mfs.mu.
func (mfs *memFS) isDir(name string) bool {
	if _, ok := mfs.dirs[name]; ok {
		return true
	}
	prefix := name + "/"
	for p := range mfs.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (mfs *memFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if mfs.isDir(name) {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
		}
		return &memDir{mfs: mfs, name: name}, nil
	}

	node, exists := mfs.files[name]
	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
	case !exists && flag&os.O_CREATE == 0:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	case !exists:
		node = &memNode{mode: perm, modTime: time.Now()}
		mfs.files[name] = node
	}

	if flag&os.O_TRUNC != 0 {
		node.mu.Lock()
		node.data = nil
		node.modTime = time.Now()
		node.mu.Unlock()
	}

	return &memFile{
		name:     name,
		node:     node,
		readable: flag&os.O_WRONLY == 0,
		writable: flag&(os.O_WRONLY|os.O_RDWR) != 0,
		append:   flag&os.O_APPEND != 0,
	}, nil
}

func (mfs *memFS) Mkdir(name string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, exists := mfs.files[name]; exists || mfs.isDir(name) {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	mfs.dirs[name] = fs.ModeDir | perm.Perm()
	return nil
}

func (mfs *memFS) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = normalizePath(name)
	if _, exists := mfs.files[name]; exists {
		delete(mfs.files, name)
		return nil
	}
	if _, exists := mfs.dirs[name]; exists && name != "." {
		delete(mfs.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

func (mfs *memFS) Rename(oldpath, newpath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	oldpath = normalizePath(oldpath)
	newpath = normalizePath(newpath)

	node, exists := mfs.files[oldpath]
	if !exists {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrNotExist}
	}
	mfs.files[newpath] = node
	delete(mfs.files, oldpath)
	return nil
}

func (mfs *memFS) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	if node, exists := mfs.files[name]; exists {
		return node.info(name), nil
	}
	if mfs.isDir(name) {
		mode, ok := mfs.dirs[name]
		if !ok {
			mode = fs.ModeDir | 0o755
		}
		return &memFileInfo{name: path.Base(name), mode: mode}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (mfs *memFS) Chmod(name string, mode fs.FileMode) error {
	return mfs.update("chmod", name, func(n *memNode) { n.mode = mode })
}

func (mfs *memFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return mfs.update("chtimes", name, func(n *memNode) { n.modTime = mtime })
}

// Chown only checks existence; ownership is not tracked.
func (mfs *memFS) Chown(name string, uid, gid int) error {
	return mfs.update("chown", name, func(*memNode) {})
}

func (mfs *memFS) update(op, name string, fn func(*memNode)) error {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	node, exists := mfs.files[name]
	if !exists {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	node.mu.Lock()
	fn(node)
	node.mu.Unlock()
	return nil
}

func (mfs *memFS) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = normalizePath(name)
	if !mfs.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return mfs.entries(name), nil
}

// entries lists the direct children of dir sorted by name. Callers hold mfs.mu.
func (mfs *memFS) entries(dir string) []fs.DirEntry {
	seen := make(map[string]bool)
	var entries []fs.DirEntry
	add := func(child string, info fs.FileInfo) {
		if !seen[child] {
			seen[child] = true
			entries = append(entries, fs.FileInfoToDirEntry(info))
		}
	}

	prefix := dir + "/"
	if dir == "." {
		prefix = ""
	}
	for p, node := range mfs.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		if head, _, nested := strings.Cut(rest, "/"); nested {
			add(head, &memFileInfo{name: head, mode: fs.ModeDir | 0o755})
		} else {
			add(rest, node.info(p))
		}
	}
	for d, mode := range mfs.dirs {
		rest, ok := strings.CutPrefix(d, prefix)
		if !ok || d == "." || strings.Contains(rest, "/") {
			continue
		}
		add(rest, &memFileInfo{name: rest, mode: mode})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries
}

func (mfs *memFS) ReadFile(name string) ([]byte, error) {
	mfs.mu.RLock()
	node, exists := mfs.files[normalizePath(name)]
	mfs.mu.RUnlock()
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	node.mu.RLock()
	defer node.mu.RUnlock()
	return append([]byte(nil), node.data...), nil
}

func (mfs *memFS) Sub(dir string) (fs.FS, error) {
	return absfs.FilerToFS(mfs, normalizePath(dir))
}

// memFile is one open handle; handles share their node's content.
type memFile struct {
	name     string
	node     *memNode
	pos      int64
	readable bool
	writable bool
	append   bool
	closed   bool
	mu       sync.Mutex
}

func (mf *memFile) Name() string { return mf.name }

func (mf *memFile) Read(p []byte) (int, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if err := mf.check("read", mf.readable); err != nil {
		return 0, err
	}
	n, err := mf.readAt(p, mf.pos)
	mf.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (mf *memFile) ReadAt(b []byte, off int64) (int, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if err := mf.check("read", mf.readable); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "readat", Path: mf.name, Err: errors.New("negative offset")}
	}
	return mf.readAt(b, off)
}

func (mf *memFile) readAt(b []byte, off int64) (int, error) {
	mf.node.mu.RLock()
	defer mf.node.mu.RUnlock()

	if off >= int64(len(mf.node.data)) {
		return 0, io.EOF
	}
	n := copy(b, mf.node.data[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (mf *memFile) Write(p []byte) (int, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if err := mf.check("write", mf.writable); err != nil {
		return 0, err
	}
	if mf.append {
		mf.node.mu.RLock()
		mf.pos = int64(len(mf.node.data))
		mf.node.mu.RUnlock()
	}
	n := mf.writeAt(p, mf.pos)
	mf.pos += int64(n)
	return n, nil
}

func (mf *memFile) WriteAt(b []byte, off int64) (int, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if err := mf.check("write", mf.writable); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, &fs.PathError{Op: "writeat", Path: mf.name, Err: errors.New("negative offset")}
	}
	return mf.writeAt(b, off), nil
}

func (mf *memFile) writeAt(b []byte, off int64) int {
	mf.node.mu.Lock()
	defer mf.node.mu.Unlock()

	if end := off + int64(len(b)); end > int64(len(mf.node.data)) {
		grown := make([]byte, end)
		copy(grown, mf.node.data)
		mf.node.data = grown
	}
	n := copy(mf.node.data[off:], b)
	mf.node.modTime = time.Now()
	return n
}

func (mf *memFile) WriteString(s string) (int, error) {
	return mf.Write([]byte(s))
}

func (mf *memFile) check(op string, allowed bool) error {
	if mf.closed {
		return fs.ErrClosed
	}
	if !allowed {
		return &fs.PathError{Op: op, Path: mf.name, Err: fs.ErrPermission}
	}
	return nil
}

func (mf *memFile) Close() error {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.closed = true
	return nil
}

func (mf *memFile) Seek(offset int64, whence int) (int64, error) {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if mf.closed {
		return 0, fs.ErrClosed
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = mf.pos + offset
	case io.SeekEnd:
		mf.node.mu.RLock()
		pos = int64(len(mf.node.data)) + offset
		mf.node.mu.RUnlock()
	default:
		return 0, &fs.PathError{Op: "seek", Path: mf.name, Err: errors.New("invalid whence")}
	}
	if pos < 0 {
		return 0, &fs.PathError{Op: "seek", Path: mf.name, Err: errors.New("negative position")}
	}
	mf.pos = pos
	return pos, nil
}

func (mf *memFile) Stat() (fs.FileInfo, error) {
	return mf.node.info(mf.name), nil
}

func (mf *memFile) Sync() error { return nil }

func (mf *memFile) Truncate(size int64) error {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	if err := mf.check("truncate", mf.writable); err != nil {
		return err
	}
	mf.node.mu.Lock()
	defer mf.node.mu.Unlock()

	if size < int64(len(mf.node.data)) {
		mf.node.data = mf.node.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, mf.node.data)
		mf.node.data = grown
	}
	mf.node.modTime = time.Now()
	return nil
}

func (mf *memFile) Readdir(int) ([]fs.FileInfo, error) { return nil, os.ErrInvalid }
func (mf *memFile) Readdirnames(int) ([]string, error) { return nil, os.ErrInvalid }
func (mf *memFile) ReadDir(int) ([]fs.DirEntry, error) { return nil, os.ErrInvalid }

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() any           { return nil }

// memDir is a directory handle. Listing is a snapshot taken on first read.
type memDir struct {
	mfs     *memFS
	name    string
	entries []fs.DirEntry
	loaded  bool
}

func (md *memDir) Name() string                       { return md.name }
func (md *memDir) Read([]byte) (int, error)           { return 0, os.ErrInvalid }
func (md *memDir) Write([]byte) (int, error)          { return 0, os.ErrInvalid }
func (md *memDir) ReadAt([]byte, int64) (int, error)  { return 0, os.ErrInvalid }
func (md *memDir) WriteAt([]byte, int64) (int, error) { return 0, os.ErrInvalid }
func (md *memDir) WriteString(string) (int, error)    { return 0, os.ErrInvalid }
func (md *memDir) Seek(int64, int) (int64, error)     { return 0, os.ErrInvalid }
func (md *memDir) Truncate(int64) error               { return os.ErrInvalid }
func (md *memDir) Sync() error                        { return nil }
func (md *memDir) Close() error                       { return nil }

func (md *memDir) Stat() (fs.FileInfo, error) {
	return md.mfs.Stat(md.name)
}

func (md *memDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !md.loaded {
		md.mfs.mu.RLock()
		md.entries = md.mfs.entries(md.name)
		md.mfs.mu.RUnlock()
		md.loaded = true
	}
	if n <= 0 {
		out := md.entries
		md.entries = nil
		return out, nil
	}
	if len(md.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(md.entries))
	out := md.entries[:n]
	md.entries = md.entries[n:]
	return out, nil
}

func (md *memDir) Readdir(n int) ([]fs.FileInfo, error) {
	entries, err := md.ReadDir(n)
	infos := make([]fs.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, ierr := e.Info()
		if ierr != nil {
			return infos, ierr
		}
		infos = append(infos, info)
	}
	return infos, err
}

func (md *memDir) Readdirnames(n int) ([]string, error) {
	entries, err := md.ReadDir(n)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, err
}
