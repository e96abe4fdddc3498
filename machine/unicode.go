package machine

import (
	"strings"

	"github.com/mattn/go-runewidth"
	lua "github.com/yuin/gopher-lua"

	"github.com/nf/occ/gpu"
)

func checkRunes(l *lua.LState, n int) []rune {
	rs, err := gpu.DecodeStrict(l.CheckString(n))
	if err != nil {
		l.RaiseError("invalid UTF-8")
	}
	return rs
}

func pushString(l *lua.LState, s string) int {
	l.Push(lua.LString(s))
	return 1
}

func pushNumber(l *lua.LState, n int) int {
	l.Push(lua.LNumber(n))
	return 1
}

// unicodeLib returns the unicode library: string functions that count in
// code points and display columns rather than bytes.
func unicodeLib(l *lua.LState) *lua.LTable {
	return l.SetFuncs(l.NewTable(), map[string]lua.LGFunction{
		"char": func(l *lua.LState) int {
			var b strings.Builder
			for i := 1; i <= l.GetTop(); i++ {
				b.WriteRune(rune(l.CheckInt(i)))
			}
			return pushString(l, b.String())
		},
		"len": func(l *lua.LState) int {
			return pushNumber(l, len(checkRunes(l, 1)))
		},
		"wlen": func(l *lua.LState) int {
			return pushNumber(l, runewidth.StringWidth(string(checkRunes(l, 1))))
		},
		"sub": func(l *lua.LState) int {
			rs := checkRunes(l, 1)
			i, j := subRange(len(rs), l.CheckInt(2), l.OptInt(3, -1))
			if i > j {
				return pushString(l, "")
			}
			return pushString(l, string(rs[i-1:j]))
		},
		"charWidth": func(l *lua.LState) int {
			rs := checkRunes(l, 1)
			if len(rs) == 0 {
				return pushNumber(l, 0)
			}
			return pushNumber(l, runewidth.RuneWidth(rs[0]))
		},
		"isWide": func(l *lua.LState) int {
			rs := checkRunes(l, 1)
			l.Push(lua.LBool(len(rs) > 0 && runewidth.RuneWidth(rs[0]) > 1))
			return 1
		},
		"wtrunc": func(l *lua.LState) int {
			rs := checkRunes(l, 1)
			limit := l.CheckInt(2)
			w, n := 0, 0
			for _, r := range rs {
				if w+runewidth.RuneWidth(r) >= limit {
					break
				}
				w += runewidth.RuneWidth(r)
				n++
			}
			return pushString(l, string(rs[:n]))
		},
		"lower": func(l *lua.LState) int {
			return pushString(l, strings.ToLower(string(checkRunes(l, 1))))
		},
		"upper": func(l *lua.LState) int {
			return pushString(l, strings.ToUpper(string(checkRunes(l, 1))))
		},
		"reverse": func(l *lua.LState) int {
			rs := checkRunes(l, 1)
			for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
				rs[i], rs[j] = rs[j], rs[i]
			}
			return pushString(l, string(rs))
		},
	})
}

// subRange resolves the Lua-style index pair i, j against a string of n
// code points and returns 1-based inclusive bounds.
func subRange(n, i, j int) (int, int) {
	if i < 0 {
		i = n + i + 1
	}
	if i < 1 {
		i = 1
	}
	if j < 0 {
		j = n + j + 1
	}
	if j > n {
		j = n
	}
	return i, j
}
