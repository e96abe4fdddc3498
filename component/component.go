// Package component implements the component bus: a registry of addressable
// devices, each exposing a flat set of named methods that guest code can
// discover and invoke without knowing the device type.
package component

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoSuchComponent = errors.New("no such component")
	ErrNoSuchMethod    = errors.New("no such method")
	ErrInvalidArgument = errors.New("bad argument")
	ErrUnsupported     = errors.New("unsupported")
	ErrOutOfMemory     = errors.New("out of memory")
)

// NewAddress returns a fresh random component address.
func NewAddress() string { return uuid.NewString() }

// Flag describes a method for introspection. Flags never change how a
// method is dispatched.
type Flag uint8

const (
	Direct Flag = 1 << iota
	Getter
	Setter
)

func (f Flag) Direct() bool { return f&Direct != 0 }
func (f Flag) Getter() bool { return f&Getter != 0 }
func (f Flag) Setter() bool { return f&Setter != 0 }

// Func is a device method bound to its device state.
type Func func(args Args) ([]any, error)

// Method is a named entry point on a component.
type Method struct {
	Name  string
	Flags Flag
	Call  Func
}

// Component is an addressable device.
type Component struct {
	Address string
	Type    string
	Methods []Method
}

// New returns an empty component of the given type at a fresh address.
func New(typ string) *Component {
	return &Component{Address: NewAddress(), Type: typ}
}

// Add appends a method to c and returns c.
// Method names must be unique within a component.
func (c *Component) Add(name string, flags Flag, f Func) *Component {
	if name == "" || f == nil {
		panic("component: method needs a name and a function")
	}
	if _, ok := c.method(name); ok {
		panic(fmt.Sprintf("component: duplicate method %q on %s", name, c.Type))
	}
	c.Methods = append(c.Methods, Method{Name: name, Flags: flags, Call: f})
	return c
}

func (c *Component) method(name string) (*Method, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// Const returns a method that always succeeds with the given results.
func Const(results ...any) Func {
	return func(Args) ([]any, error) { return results, nil }
}

// Unsupported is a method that always fails with ErrUnsupported.
func Unsupported(Args) ([]any, error) { return nil, ErrUnsupported }

// Results is shorthand for a method result list.
func Results(v ...any) []any { return v }
