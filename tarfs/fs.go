package tarfs

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/nf/occ/component"
)

var (
	ErrReadOnly      = errors.New("read-only filesystem")
	ErrFileNotFound  = errors.New("file not found")
	ErrInvalidHandle = errors.New("invalid handle")
)

// FS is the state of a filesystem component: an archive and its table of
// open files.
type FS struct {
	a     *Archive
	label string
	files map[int]*file
	next  int
}

type file struct {
	data []byte
	pos  int64
}

// New returns a filesystem over a with the given label.
func New(a *Archive, label string) *FS {
	return &FS{a: a, label: label, files: make(map[int]*file)}
}

func (fs *FS) Label() string     { return fs.label }
func (fs *FS) SpaceUsed() int    { return fs.a.Len() }
func (fs *FS) OpenFiles() int    { return len(fs.files) }
func (fs *FS) Archive() *Archive { return fs.a }

func badArg(msg string) error {
	return fmt.Errorf("%w: %s", component.ErrInvalidArgument, msg)
}

// Open opens the regular file at path. mode must ask for reading and must
// not ask for writing. Handle ids are never reused.
func (fs *FS) Open(path, mode string) (int, error) {
	if path == "" {
		return 0, badArg("empty path")
	}
	if mode == "" {
		return 0, badArg("empty mode")
	}
	if !strings.Contains(mode, "r") || strings.ContainsAny(mode, "wa") {
		return 0, ErrReadOnly
	}
	e, ok := fs.a.Find(path, TypeReg)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	h := fs.next
	fs.next++
	fs.files[h] = &file{data: e.Data}
	return h, nil
}

func (fs *FS) lookup(h int) (*file, error) {
	f, ok := fs.files[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return f, nil
}

// Read returns up to n bytes from the current position and advances it.
// At or past the end of the file it returns nil.
func (fs *FS) Read(h, n int) ([]byte, error) {
	f, err := fs.lookup(h)
	if err != nil {
		return nil, err
	}
	size := int64(len(f.data))
	if n <= 0 || f.pos < 0 || f.pos >= size {
		return nil, nil
	}
	end := f.pos + int64(n)
	if end > size {
		end = size
	}
	b := bytes.Clone(f.data[f.pos:end])
	f.pos = end
	return b, nil
}

// Seek moves the position of h relative to whence ("set", "cur" or "end")
// and returns the new position. The position is not checked until the next
// read.
func (fs *FS) Seek(h int, whence string, off int64) (int64, error) {
	f, err := fs.lookup(h)
	if err != nil {
		return 0, err
	}
	switch whence {
	case "set":
		f.pos = off
	case "cur":
		f.pos += off
	case "end":
		f.pos = int64(len(f.data)) + off
	default:
		return 0, badArg("invalid whence " + whence)
	}
	return f.pos, nil
}

// Close releases h.
func (fs *FS) Close(h int) error {
	if _, err := fs.lookup(h); err != nil {
		return err
	}
	delete(fs.files, h)
	return nil
}

// isDir reports whether p names a directory, either explicitly or as the
// parent of some entry.
func (fs *FS) isDir(p string) bool {
	p = Clean(p)
	if p == "" {
		return true
	}
	prefix := p + "/"
	it := fs.a.Iter()
	for {
		e, ok := it.Next()
		if !ok {
			return false
		}
		n := Clean(e.Name)
		if (n == p && e.IsDir()) || strings.HasPrefix(n, prefix) {
			return true
		}
	}
}

func (fs *FS) Exists(p string) bool {
	if p == "" {
		return false
	}
	if _, ok := fs.a.Find(p, 0); ok {
		return true
	}
	return fs.isDir(p)
}

func (fs *FS) IsDirectory(p string) (bool, error) {
	if p == "" {
		return false, badArg("empty path")
	}
	return fs.isDir(p), nil
}

// Size returns the size of the file at p.
func (fs *FS) Size(p string) (int64, error) {
	if p == "" {
		return 0, badArg("empty path")
	}
	e, ok := fs.a.Find(p, TypeReg)
	if !ok {
		return 0, ErrFileNotFound
	}
	return e.Size, nil
}

// LastModified returns the modification time of p in seconds since the
// epoch, or 0 if p does not exist.
func (fs *FS) LastModified(p string) (int64, error) {
	if p == "" {
		return 0, badArg("empty path")
	}
	e, ok := fs.a.Find(p, 0)
	if !ok {
		return 0, nil
	}
	return e.ModTime, nil
}

// List returns the immediate children of directory p in archive order.
// Directories carry a trailing "/".
func (fs *FS) List(p string) ([]string, error) {
	if !fs.isDir(p) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, p)
	}
	dir := Clean(p)
	if dir != "" {
		dir += "/"
	}
	var names []string
	seen := make(map[string]bool)
	it := fs.a.Iter()
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		n := Clean(e.Name)
		if !strings.HasPrefix(n, dir) || n == Clean(dir) {
			continue
		}
		child := n[len(dir):]
		if i := strings.IndexByte(child, '/'); i >= 0 {
			child = child[:i+1]
		} else if e.IsDir() {
			child += "/"
		}
		if !seen[child] {
			seen[child] = true
			names = append(names, child)
		}
	}
	return names, nil
}
