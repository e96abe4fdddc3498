package machine

import (
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// openLua returns an interpreter with the standard libraries the firmware
// may use and the machine's own libraries. Nothing in it reaches the host
// filesystem or process.
func (m *Machine) openLua() *lua.LState {
	l := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
		{lua.CoroutineLibName, lua.OpenCoroutine},
		{lua.DebugLibName, lua.OpenDebug},
	} {
		err := l.CallByParam(lua.P{
			Fn:      l.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			panic(fmt.Sprintf("machine: opening %q: %v", lib.name, err))
		}
	}
	for _, name := range []string{"dofile", "loadfile", "require", "module"} {
		l.SetGlobal(name, lua.LNil)
	}

	l.SetGlobal("print", l.NewFunction(m.print))
	l.SetGlobal("checkArg", l.NewFunction(checkArg))
	l.SetGlobal("component", m.componentLib(l))
	l.SetGlobal("computer", m.computerLib(l))
	l.SetGlobal("unicode", unicodeLib(l))
	l.SetGlobal("os", l.SetFuncs(l.NewTable(), map[string]lua.LGFunction{
		"clock": m.uptime,
	}))
	return l
}

func (m *Machine) print(l *lua.LState) int {
	s := make([]string, l.GetTop())
	for i := range s {
		s[i] = l.ToStringMeta(l.Get(i + 1)).String()
	}
	m.logf("bios: %s", strings.Join(s, "\t"))
	return 0
}

// checkArg(n, value, types...) fails unless value has one of types.
func checkArg(l *lua.LState) int {
	n := l.CheckInt(1)
	have := l.Get(2).Type().String()
	var want []string
	for i := 3; i <= l.GetTop(); i++ {
		t := l.CheckString(i)
		if t == have {
			return 0
		}
		want = append(want, t)
	}
	l.RaiseError("bad argument #%d (%s expected, got %s)", n, strings.Join(want, " or "), have)
	return 0
}

func (m *Machine) componentLib(l *lua.LState) *lua.LTable {
	r := m.Registry
	return l.SetFuncs(l.NewTable(), map[string]lua.LGFunction{
		"list": func(l *lua.LState) int {
			filter := ""
			if s, ok := l.Get(1).(lua.LString); ok {
				filter = string(s)
			}
			exact := true
			if b, ok := l.Get(2).(lua.LBool); ok {
				exact = bool(b)
			}
			t := l.NewTable()
			for addr, typ := range r.List(filter, exact) {
				t.RawSetString(addr, lua.LString(typ))
			}
			// Calling the result iterates over it.
			key := lua.LValue(lua.LNil)
			mt := l.NewTable()
			mt.RawSetString("__call", l.NewFunction(func(l *lua.LState) int {
				k, v := t.Next(key)
				if k == lua.LNil {
					return 0
				}
				key = k
				l.Push(k)
				l.Push(v)
				return 2
			}))
			l.SetMetatable(t, mt)
			l.Push(t)
			return 1
		},
		"type": func(l *lua.LState) int {
			typ, err := r.Type(l.CheckString(1))
			if err != nil {
				return raise(l, err)
			}
			l.Push(lua.LString(typ))
			return 1
		},
		"slot": func(l *lua.LState) int {
			l.Push(lua.LNumber(-1))
			return 1
		},
		"doc": func(l *lua.LState) int {
			l.Push(lua.LNil)
			return 1
		},
		"methods": func(l *lua.LState) int {
			ms, err := r.Methods(l.CheckString(1))
			if err != nil {
				return raise(l, err)
			}
			t := l.NewTable()
			for _, method := range ms {
				info := l.NewTable()
				info.RawSetString("direct", lua.LBool(method.Flags.Direct()))
				info.RawSetString("getter", lua.LBool(method.Flags.Getter()))
				info.RawSetString("setter", lua.LBool(method.Flags.Setter()))
				t.RawSetString(method.Name, info)
			}
			l.Push(t)
			return 1
		},
		"invoke": func(l *lua.LState) int {
			res, err := r.Invoke(l.CheckString(1), l.CheckString(2), args(l, 3))
			if err != nil {
				return raise(l, err)
			}
			return push(l, res)
		},
		"proxy": func(l *lua.LState) int {
			p, err := r.Proxy(l.CheckString(1))
			if err != nil {
				return raise(l, err)
			}
			t := l.NewTable()
			t.RawSetString("address", lua.LString(p.Address))
			t.RawSetString("type", lua.LString(p.Type))
			for name, call := range p.Funcs {
				call := call
				t.RawSetString(name, l.NewFunction(func(l *lua.LState) int {
					res, err := call(args(l, 1))
					if err != nil {
						return raise(l, err)
					}
					return push(l, res)
				}))
			}
			l.Push(t)
			return 1
		},
	})
}

func (m *Machine) uptime(l *lua.LState) int {
	l.Push(lua.LNumber(m.Uptime().Seconds()))
	return 1
}

func (m *Machine) computerLib(l *lua.LState) *lua.LTable {
	return l.SetFuncs(l.NewTable(), map[string]lua.LGFunction{
		"realTime": func(l *lua.LState) int {
			l.Push(lua.LNumber(float64(time.Now().UnixNano()) / 1e9))
			return 1
		},
		"uptime": m.uptime,
		"address": func(l *lua.LState) int {
			l.Push(lua.LString(m.Address))
			return 1
		},
		"pushSignal": func(l *lua.LState) int {
			name := l.CheckString(1)
			if err := m.Signals.PushArgs(name, args(l, 2)...); err != nil {
				return raise(l, err)
			}
			return 0
		},
		"pullSignal": func(l *lua.LState) int {
			var timeout time.Duration
			if n, ok := l.Get(1).(lua.LNumber); ok {
				timeout = time.Duration(float64(n) * float64(time.Second))
			}
			ev, ok := m.Signals.Pull(timeout)
			if !ok {
				return 0
			}
			l.Push(lua.LString(ev.Name))
			return 1 + push(l, ev.Args)
		},
	})
}
