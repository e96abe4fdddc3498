package machine

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/nf/occ/component"
	"github.com/nf/occ/gpu"
	"github.com/nf/occ/script"
)

func archive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, body := range files {
		hdr := &tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
			Format:   tar.FormatUSTAR,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type testMachine struct {
	*Machine
	log []string
}

func newMachine(t *testing.T, data []byte) *testMachine {
	t.Helper()
	tm := &testMachine{}
	tm.Machine = New(Config{
		Archive: data,
		Label:   "initrd",
		Display: gpu.NewFramebuffer(Cols, Rows),
		Logf: func(format string, args ...any) {
			tm.log = append(tm.log, fmt.Sprintf(format, args...))
		},
	})
	t.Cleanup(tm.Close)
	return tm
}

func bootBIOS(t *testing.T, bios string) (*testMachine, error) {
	t.Helper()
	m := newMachine(t, archive(t, map[string]string{"bios.lua": bios}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m, m.Boot(ctx)
}

func (m *testMachine) row(y int) string {
	var b strings.Builder
	for x := 0; x < Cols; x++ {
		b.WriteRune(m.GPU.Cell(x, y).Char)
	}
	return strings.TrimRight(b.String(), " ")
}

func (m *testMachine) global(name string) lua.LValue { return m.l.GetGlobal(name) }

func (m *testMachine) logged(s string) bool {
	for _, l := range m.log {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

func TestRegistration(t *testing.T) {
	m := newMachine(t, archive(t, map[string]string{"bios.lua": ""}))
	var types []string
	for _, c := range m.Registry.All() {
		types = append(types, c.Type)
	}
	if got, want := strings.Join(types, " "), "eeprom screen gpu keyboard filesystem"; got != want {
		t.Errorf("components = %q, want %q", got, want)
	}
	for _, addr := range []string{m.EEPROMAddress, m.ScreenAddress, m.GPUAddress, m.KeyboardAddress, m.FSAddress} {
		if !m.logged(addr) {
			t.Errorf("registration of %s not logged", addr)
		}
	}
	kb, err := m.Registry.Invoke(m.ScreenAddress, "getKeyboards", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ks := kb[0].([]string); len(ks) != 1 || ks[0] != m.KeyboardAddress {
		t.Errorf("getKeyboards = %v", ks)
	}

	none := newMachine(t, nil)
	if none.FS != nil || none.Registry.Len() != 4 {
		t.Errorf("machine without archive has %d components", none.Registry.Len())
	}
}

func TestPushPull(t *testing.T) {
	m, err := bootBIOS(t, `
computer.pushSignal("x", 1, 2)
count = 0
while true do
  local name, a, b = computer.pullSignal()
  if name == nil then break end
  count = count + 1
  got = name .. " " .. tostring(a) .. " " .. tostring(b)
  coroutine.yield()
end
`)
	if err != nil {
		t.Fatal(err)
	}
	if n := m.global("count"); n != lua.LNumber(1) {
		t.Errorf("pulled %v signals, want 1", n)
	}
	if got := m.global("got"); got != lua.LString("x 1 2") {
		t.Errorf("pulled %v", got)
	}
	if m.Signals.Len() != 0 || m.Signals.Pending() != 0 {
		t.Errorf("queue holds %d signals, %d argument lists", m.Signals.Len(), m.Signals.Pending())
	}
	if m.State() != script.Completed {
		t.Errorf("state = %v", m.State())
	}
	if got := m.row(0); got != "computer halted" {
		t.Errorf("screen shows %q", got)
	}
}

func TestKeySignals(t *testing.T) {
	m := newMachine(t, archive(t, map[string]string{"bios.lua": `
local name, kb, char, code = computer.pullSignal()
down = name .. " " .. char .. " " .. code
ok = kb == component.list("keyboard")()
name, kb, char, code = computer.pullSignal()
up = name .. " " .. char .. " " .. code
`}))
	m.PressKey('a', 0x1E)
	m.ReleaseKey('a', 0x1E)
	if err := m.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := m.global("down"); got != lua.LString("key_down 97 30") {
		t.Errorf("down = %v", got)
	}
	if got := m.global("up"); got != lua.LString("key_up 97 30") {
		t.Errorf("up = %v", got)
	}
	if m.global("ok") != lua.LTrue {
		t.Error("key signal does not carry the keyboard address")
	}
}

func TestPushSignalFull(t *testing.T) {
	m, err := bootBIOS(t, `
for i = 1, 200 do
  local ok = pcall(computer.pushSignal, "s", i)
  if not ok then failed = i break end
end
`)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.global("failed"); got != lua.LNumber(129) {
		t.Errorf("first failing push = %v, want 129", got)
	}
}

func TestComponentLib(t *testing.T) {
	m, err := bootBIOS(t, `
count = 0
for addr, typ in pairs(component.list()) do count = count + 1 end
local gpu = component.list("gpu")()
partial = 0
for _ in pairs(component.list("key", false)) do partial = partial + 1 end
exact = 0
for _ in pairs(component.list("key")) do exact = exact + 1 end

local g = component.proxy(gpu)
ptype = g.type
g.set(1, 1, "hi")
w, h = g.getResolution()
cell = component.invoke(gpu, "get", 2, 1)

local ms = component.methods(gpu)
direct = ms.set.direct
gtype = component.type(gpu)
slot = component.slot(gpu)

local ok, e = pcall(component.invoke, gpu, "nope")
nomethod = not ok and string.find(e, "no such method", 1, true) ~= nil
ok, e = pcall(component.type, "nowhere")
nocomp = not ok and string.find(e, "no such component", 1, true) ~= nil
ok, e = pcall(g.set, "a", 1, "x")
badarg = not ok and string.find(e, "bad argument", 1, true) ~= nil

local eeprom = component.list("eeprom")()
code = component.invoke(eeprom, "get")
`)
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]lua.LValue{
		"count":    lua.LNumber(5),
		"partial":  lua.LNumber(1),
		"exact":    lua.LNumber(0),
		"ptype":    lua.LString("gpu"),
		"w":        lua.LNumber(Cols),
		"h":        lua.LNumber(Rows),
		"cell":     lua.LString("i"),
		"direct":   lua.LTrue,
		"gtype":    lua.LString("gpu"),
		"slot":     lua.LNumber(-1),
		"nomethod": lua.LTrue,
		"nocomp":   lua.LTrue,
		"badarg":   lua.LTrue,
	} {
		if got := m.global(name); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if code := m.global("code"); !strings.Contains(code.String(), "component.list()") {
		t.Errorf("eeprom holds %q", code)
	}
}

func TestBaseLib(t *testing.T) {
	m, err := bootBIOS(t, `
print("a", 1, true)
checkArg(1, "s", "number", "string")
local ok, e = pcall(checkArg, 2, 5, "string", "nil")
checkmsg = e
hidden = dofile == nil and loadfile == nil and require == nil and io == nil
clock = type(os.clock()) == "number" and os.execute == nil
uptime = computer.uptime() >= 0 and computer.realTime() > 1e9
addr = computer.address()
`)
	if err != nil {
		t.Fatal(err)
	}
	if !m.logged("bios: a\t1\ttrue") {
		t.Errorf("print not logged: %q", m.log)
	}
	if got := m.global("checkmsg").String(); !strings.Contains(got, "bad argument #2 (string or nil expected, got number)") {
		t.Errorf("checkArg error = %q", got)
	}
	for _, name := range []string{"hidden", "clock", "uptime"} {
		if m.global(name) != lua.LTrue {
			t.Errorf("%s is not true", name)
		}
	}
	if got := m.global("addr"); got != lua.LString(m.Address) {
		t.Errorf("computer.address() = %v, want %s", got, m.Address)
	}
}

func TestUnicodeLib(t *testing.T) {
	m, err := bootBIOS(t, `
results = {
  unicode.len("héllo"),
  unicode.wlen("日本"),
  unicode.sub("héllo", 2, 3),
  unicode.sub("héllo", -2),
  unicode.isWide("日"),
  unicode.charWidth("a"),
  unicode.wtrunc("abcdef", 4),
  unicode.reverse("abç"),
  unicode.upper("é"),
  unicode.char(72, 105),
  pcall(unicode.len, "\255"),
}
`)
	if err != nil {
		t.Fatal(err)
	}
	want := []lua.LValue{
		lua.LNumber(5),
		lua.LNumber(4),
		lua.LString("él"),
		lua.LString("lo"),
		lua.LTrue,
		lua.LNumber(1),
		lua.LString("abc"),
		lua.LString("çba"),
		lua.LString("É"),
		lua.LString("Hi"),
		lua.LFalse,
	}
	res, ok := m.global("results").(*lua.LTable)
	if !ok {
		t.Fatalf("results = %v", m.global("results"))
	}
	for i, w := range want {
		if got := res.RawGetInt(i + 1); got != w {
			t.Errorf("result %d = %v, want %v", i+1, got, w)
		}
	}
}

func TestBootFailures(t *testing.T) {
	for _, tt := range []struct {
		name   string
		data   []byte
		err    error
		screen string
	}{
		{"no archive", nil, ErrNoArchive, "missing initrd"},
		{"no bios", archive(t, map[string]string{"init.lua": "x"}), ErrNoBIOS, "couldn't find bios.lua"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t, tt.data)
			err := m.Boot(context.Background())
			if !errors.Is(err, tt.err) {
				t.Errorf("Boot = %v, want %v", err, tt.err)
			}
			if m.State() != script.Failed {
				t.Errorf("state = %v", m.State())
			}
			if got := m.row(0); got != tt.screen {
				t.Errorf("screen shows %q, want %q", got, tt.screen)
			}
		})
	}
}

func TestRuntimeError(t *testing.T) {
	m, err := bootBIOS(t, `error("boom")`)
	if err == nil {
		t.Fatal("Boot succeeded")
	}
	if m.State() != script.Failed {
		t.Errorf("state = %v", m.State())
	}
	if !strings.Contains(m.row(0), "boom") {
		t.Errorf("screen shows %q", m.row(0))
	}
	fg := m.GPU.Cell(0, 0).FG
	bg := m.GPU.Cell(0, 0).BG
	if fg != 0xffffff || bg != 0x0000ff {
		t.Errorf("error screen colours = %06x on %06x", fg, bg)
	}
}

func TestSyntaxError(t *testing.T) {
	m, err := bootBIOS(t, `this is not lua`)
	var le *script.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Boot = %v, want a load error", err)
	}
	if m.row(0) == "" {
		t.Error("load error not shown")
	}
}

func TestEmptyBIOS(t *testing.T) {
	m, err := bootBIOS(t, "")
	if err != nil {
		t.Fatal(err)
	}
	if m.State() != script.Completed {
		t.Errorf("state = %v", m.State())
	}
}

func TestBootCancel(t *testing.T) {
	m := newMachine(t, archive(t, map[string]string{"bios.lua": `while true do coroutine.yield() end`}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Boot(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Boot = %v, want deadline exceeded", err)
	}
	if m.State() != script.Running {
		t.Errorf("state = %v", m.State())
	}
	if got := m.row(0); got != "" {
		t.Errorf("cancelled machine shows %q", got)
	}
}

func TestEEPROM(t *testing.T) {
	m := newMachine(t, nil)
	m.EEPROM.SetCode([]byte("return 1"))
	for _, tt := range []struct {
		method string
		args   component.Args
		want   any
		err    error
	}{
		{"get", nil, "return 1", nil},
		{"getSize", nil, EEPROMSize, nil},
		{"getDataSize", nil, EEPROMDataSize, nil},
		{"getLabel", nil, "EEPROM", nil},
		{"getData", nil, nil, nil},
		{"setData", component.Args{"abc"}, nil, nil},
		{"setData", component.Args{strings.Repeat("x", EEPROMDataSize+1)}, nil, component.ErrOutOfMemory},
		{"setData", component.Args{true}, nil, component.ErrInvalidArgument},
		{"set", component.Args{"x"}, nil, component.ErrUnsupported},
	} {
		res, err := m.Registry.Invoke(m.EEPROMAddress, tt.method, tt.args)
		if !errors.Is(err, tt.err) {
			t.Errorf("%s: err = %v, want %v", tt.method, err, tt.err)
			continue
		}
		if err != nil || tt.want == nil {
			continue
		}
		if len(res) == 0 || res[0] != tt.want {
			t.Errorf("%s = %v, want %v", tt.method, res, tt.want)
		}
	}
	if string(m.EEPROM.Data()) != "abc" {
		t.Errorf("data = %q", m.EEPROM.Data())
	}
	if got := m.EEPROM.Checksum(); len(got) != 8 {
		t.Errorf("checksum %q is not eight hex digits", got)
	}
}

func TestValues(t *testing.T) {
	l := lua.NewState()
	defer l.Close()
	tab := l.NewTable()
	for _, tt := range []struct {
		in   lua.LValue
		want any
	}{
		{lua.LNil, nil},
		{lua.LTrue, true},
		{lua.LNumber(2.5), 2.5},
		{lua.LString("s"), "s"},
		{tab, guestValue{tab}},
	} {
		got := fromLua(tt.in)
		if got != tt.want {
			t.Errorf("fromLua(%v) = %#v, want %#v", tt.in, got, tt.want)
		}
		if back := toLua(l, got); back != tt.in {
			t.Errorf("toLua(fromLua(%v)) = %v", tt.in, back)
		}
	}
	if got := component.TypeName(guestValue{tab}); got != "table" {
		t.Errorf("guest table type = %q", got)
	}

	for _, tt := range []struct {
		in   any
		want lua.LValue
	}{
		{7, lua.LNumber(7)},
		{int64(8), lua.LNumber(8)},
		{[]byte("b"), lua.LString("b")},
		{struct{}{}, lua.LString("{}")},
	} {
		if got := toLua(l, tt.in); got != tt.want {
			t.Errorf("toLua(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	arr, ok := toLua(l, []string{"a", "b"}).(*lua.LTable)
	if !ok || arr.Len() != 2 || arr.RawGetInt(2) != lua.LString("b") {
		t.Errorf("toLua([]string) = %v", arr)
	}
}

func TestReadWholeFile(t *testing.T) {
	m := newMachine(t, archive(t, map[string]string{
		"data.txt": "hello world\n",
		"bios.lua": `
local fs = component.list("filesystem")()
local h = component.invoke(fs, "open", "/data.txt")
local ok, data = pcall(component.invoke, fs, "read", h, math.huge)
whole = ok and data or tostring(data)
rest = component.invoke(fs, "read", h, math.huge)
component.invoke(fs, "close", h)
`,
	}))
	if err := m.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := m.global("whole"); got != lua.LString("hello world\n") {
		t.Errorf("read(h, math.huge) = %v", got)
	}
	if got := m.global("rest"); got != lua.LNil {
		t.Errorf("read at end = %v, want nil", got)
	}
}

func TestYieldResumesAtOnce(t *testing.T) {
	start := time.Now()
	m, err := bootBIOS(t, `for i = 1, 2000 do coroutine.yield() end`)
	if err != nil {
		t.Fatal(err)
	}
	if m.State() != script.Completed {
		t.Errorf("state = %v", m.State())
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("2000 yields on an empty queue took %v", d)
	}
}
