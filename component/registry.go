package component

import (
	"fmt"
	"strings"
)

// Handle identifies a registered component. Handles are stable for the
// lifetime of the registry.
type Handle int

// Registry is an append-only catalogue of components.
//
// Lookups scan in registration order. Device counts are bounded by the
// number of hardware slots, so there is no index.
type Registry struct {
	comps []*Component
}

// Register appends c and returns its handle.
// It panics if c has no type or address or if the address is taken.
func (r *Registry) Register(c *Component) Handle {
	if c == nil || c.Type == "" || c.Address == "" {
		panic("component: register needs a type and an address")
	}
	if _, ok := r.find(c.Address); ok {
		panic(fmt.Sprintf("component: address %s already registered", c.Address))
	}
	r.comps = append(r.comps, c)
	return Handle(len(r.comps) - 1)
}

// Get returns the component for h.
func (r *Registry) Get(h Handle) *Component { return r.comps[h] }

// Len returns the number of registered components.
func (r *Registry) Len() int { return len(r.comps) }

// All returns the components in registration order.
func (r *Registry) All() []*Component {
	return append([]*Component(nil), r.comps...)
}

func (r *Registry) find(addr string) (*Component, bool) {
	for _, c := range r.comps {
		if c.Address == addr {
			return c, true
		}
	}
	return nil, false
}

// Lookup returns the component at addr.
func (r *Registry) Lookup(addr string) (*Component, error) {
	if c, ok := r.find(addr); ok {
		return c, nil
	}
	return nil, ErrNoSuchComponent
}

// List returns address -> type for every component whose type matches
// filter: equal to it if exact, containing it otherwise.
// An empty filter matches every component.
func (r *Registry) List(filter string, exact bool) map[string]string {
	m := make(map[string]string)
	for _, c := range r.comps {
		if filter != "" {
			if exact && c.Type != filter {
				continue
			}
			if !exact && !strings.Contains(c.Type, filter) {
				continue
			}
		}
		m[c.Address] = c.Type
	}
	return m
}

// Type returns the type of the component at addr.
func (r *Registry) Type(addr string) (string, error) {
	c, err := r.Lookup(addr)
	if err != nil {
		return "", err
	}
	return c.Type, nil
}

// Methods returns the methods of the component at addr.
func (r *Registry) Methods(addr string) ([]Method, error) {
	c, err := r.Lookup(addr)
	if err != nil {
		return nil, err
	}
	return append([]Method(nil), c.Methods...), nil
}

// Invoke calls the named method of the component at addr.
func (r *Registry) Invoke(addr, name string, args Args) ([]any, error) {
	c, err := r.Lookup(addr)
	if err != nil {
		return nil, err
	}
	m, ok := c.method(name)
	if !ok {
		return nil, ErrNoSuchMethod
	}
	return m.Call(args)
}

// Proxy binds every method of a component so that repeated calls skip the
// component and method lookups.
type Proxy struct {
	Address string
	Type    string
	Funcs   map[string]Func
}

// Proxy returns a proxy for the component at addr.
func (r *Registry) Proxy(addr string) (*Proxy, error) {
	c, err := r.Lookup(addr)
	if err != nil {
		return nil, err
	}
	p := &Proxy{
		Address: c.Address,
		Type:    c.Type,
		Funcs:   make(map[string]Func, len(c.Methods)),
	}
	for _, m := range c.Methods {
		p.Funcs[m.Name] = m.Call
	}
	return p, nil
}
