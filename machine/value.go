package machine

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nf/occ/component"
)

// guestValue carries a Lua value that has no Go representation (a table,
// function, coroutine or userdata) through device methods and the signal
// queue.
type guestValue struct{ v lua.LValue }

func (g guestValue) TypeName() string { return g.v.Type().String() }
func (g guestValue) String() string   { return g.v.String() }

// fromLua converts a Lua value to the representation used by devices.
func fromLua(v lua.LValue) any {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	}
	return guestValue{v}
}

// toLua converts a device value back to Lua. Slices of strings become
// arrays.
func toLua(l *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []byte:
		return lua.LString(v)
	case []string:
		t := l.CreateTable(len(v), 0)
		for _, s := range v {
			t.Append(lua.LString(s))
		}
		return t
	case guestValue:
		return v.v
	case lua.LValue:
		return v
	}
	return lua.LString(fmt.Sprint(v))
}

// args collects the Lua arguments from index start on.
func args(l *lua.LState, start int) component.Args {
	top := l.GetTop()
	if top < start {
		return nil
	}
	a := make(component.Args, 0, top-start+1)
	for i := start; i <= top; i++ {
		a = append(a, fromLua(l.Get(i)))
	}
	return a
}

// push pushes results and returns their count.
func push(l *lua.LState, results []any) int {
	for _, v := range results {
		l.Push(toLua(l, v))
	}
	return len(results)
}

// raise turns err into a Lua error.
func raise(l *lua.LState, err error) int {
	l.RaiseError("%s", err.Error())
	return 0
}
