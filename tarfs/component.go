package tarfs

import (
	"math"

	"github.com/nf/occ/component"
)

func readOnly(component.Args) ([]any, error) { return nil, ErrReadOnly }

// Register installs a filesystem component for fs on r and returns its
// address.
func Register(r *component.Registry, fs *FS) string {
	c := component.New("filesystem")
	c.Add("spaceUsed", component.Direct|component.Getter, func(component.Args) ([]any, error) {
		return component.Results(fs.SpaceUsed()), nil
	}).
		Add("spaceTotal", component.Direct|component.Getter, func(component.Args) ([]any, error) {
			return component.Results(fs.SpaceUsed()), nil
		}).
		Add("isReadOnly", component.Direct|component.Getter, component.Const(true)).
		Add("getLabel", component.Direct|component.Getter, func(component.Args) ([]any, error) {
			return component.Results(fs.Label()), nil
		}).
		Add("setLabel", 0, func(component.Args) ([]any, error) {
			return component.Results(fs.Label()), nil
		}).
		Add("open", 0, func(a component.Args) ([]any, error) {
			p, err := a.CheckString(0)
			if err != nil {
				return nil, err
			}
			h, err := fs.Open(p, a.OptString(1, "r"))
			if err != nil {
				return nil, err
			}
			return component.Results(h), nil
		}).
		Add("read", component.Direct, func(a component.Args) ([]any, error) {
			h, err := a.CheckInt(0)
			if err != nil {
				return nil, err
			}
			count, err := a.CheckNumber(1)
			if err != nil {
				return nil, err
			}
			b, err := fs.Read(h, readCount(count))
			if err != nil || b == nil {
				return component.Results(nil), err
			}
			return component.Results(string(b)), nil
		}).
		Add("seek", component.Direct, func(a component.Args) ([]any, error) {
			h, err := a.CheckInt(0)
			if err != nil {
				return nil, err
			}
			off, err := a.OptInt(2, 0)
			if err != nil {
				return nil, err
			}
			pos, err := fs.Seek(h, a.OptString(1, "cur"), int64(off))
			if err != nil {
				return nil, err
			}
			return component.Results(pos), nil
		}).
		Add("close", component.Direct, func(a component.Args) ([]any, error) {
			h, err := a.CheckInt(0)
			if err != nil {
				return nil, err
			}
			return nil, fs.Close(h)
		}).
		Add("exists", component.Direct, pathMethod(func(p string) (any, error) {
			return fs.Exists(p), nil
		})).
		Add("isDirectory", component.Direct, pathMethod(func(p string) (any, error) {
			return fs.IsDirectory(p)
		})).
		Add("size", component.Direct, pathMethod(func(p string) (any, error) {
			return fs.Size(p)
		})).
		Add("lastModified", component.Direct, pathMethod(func(p string) (any, error) {
			return fs.LastModified(p)
		})).
		Add("list", 0, pathMethod(func(p string) (any, error) {
			return fs.List(p)
		})).
		Add("makeDirectory", 0, readOnly).
		Add("write", 0, readOnly).
		Add("rename", 0, readOnly).
		Add("remove", 0, readOnly)
	r.Register(c)
	return c.Address
}

// readCount converts a guest byte count, which may be huge or infinite,
// to a length for Read.
func readCount(f float64) int {
	switch {
	case f != f || f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}

func pathMethod(f func(p string) (any, error)) component.Func {
	return func(a component.Args) ([]any, error) {
		p, err := a.CheckString(0)
		if err != nil {
			return nil, err
		}
		v, err := f(p)
		if err != nil {
			return nil, err
		}
		return component.Results(v), nil
	}
}
