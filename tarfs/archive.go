// Package tarfs provides a read-only filesystem over an in-memory USTAR
// archive.
package tarfs

import (
	"bytes"
	"strconv"
	"strings"
)

const blockSize = 512

// Entry types.
const (
	TypeReg byte = '0'
	TypeDir byte = '5'
)

// Entry is one archive member. Data aliases the archive blob.
type Entry struct {
	Name    string
	Type    byte
	Size    int64
	ModTime int64 // seconds since the epoch
	Data    []byte
}

func (e Entry) IsDir() bool     { return e.Type == TypeDir }
func (e Entry) IsRegular() bool { return e.Type == TypeReg || e.Type == 0 }

// Archive is an immutable view of a USTAR blob.
type Archive struct {
	data []byte
}

func NewArchive(data []byte) *Archive { return &Archive{data: data} }

// Len returns the size of the blob in bytes.
func (a *Archive) Len() int { return len(a.data) }

// Iter returns a cursor positioned at the first entry.
func (a *Archive) Iter() *Iter { return &Iter{data: a.data} }

// Iter walks the entries of an archive. Walks are independent of each
// other.
type Iter struct {
	data []byte
	off  int
}

// Next returns the next entry. It reports false at the end of the blob or
// at the first header without a "ustar" marker.
func (it *Iter) Next() (Entry, bool) {
	if it.off+blockSize > len(it.data) {
		return Entry{}, false
	}
	h := it.data[it.off : it.off+blockSize]
	if string(h[257:262]) != "ustar" {
		return Entry{}, false
	}
	size, ok := octal(h[124:136])
	if !ok || size < 0 {
		return Entry{}, false
	}
	start := it.off + blockSize
	if int64(len(it.data)-start) < size {
		return Entry{}, false
	}
	mtime, _ := octal(h[136:148])

	name := cstr(h[0:100])
	if prefix := cstr(h[345:500]); prefix != "" {
		name = prefix + "/" + name
	}
	e := Entry{
		Name:    name,
		Type:    h[156],
		Size:    size,
		ModTime: mtime,
		Data:    it.data[start : start+int(size)],
	}
	it.off = start + int((size+blockSize-1)/blockSize*blockSize)
	return e, true
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func octal(b []byte) (int64, bool) {
	s := strings.Trim(string(b), " \x00")
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(s, 8, 64)
	return n, err == nil
}

// Clean normalizes a path: a leading "/" or "./" and a trailing "/" are
// removed.
func Clean(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimSuffix(p, "/")
}

// Find returns the first entry whose cleaned name is the cleaned path.
// If typ is not zero the entry must also have that type; TypeReg matches
// any regular file.
func (a *Archive) Find(path string, typ byte) (Entry, bool) {
	path = Clean(path)
	it := a.Iter()
	for {
		e, ok := it.Next()
		if !ok {
			return Entry{}, false
		}
		if Clean(e.Name) != path {
			continue
		}
		switch {
		case typ == 0,
			typ == TypeReg && e.IsRegular(),
			typ == e.Type:
			return e, true
		}
	}
}
