package gpu

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/nf/occ/component"
)

func newTextGPU(t *testing.T) (*GPU, tcell.SimulationScreen) {
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Fini)
	s.SetSize(80, 25)
	b := NewText(s)
	return New(b.Config(), b), s
}

func TestTextBackend(t *testing.T) {
	g, s := newTextGPU(t)
	g.SetForeground(0xffff55, false)
	g.SetBackground(1, true)
	g.Set(79, 25, "hi!", false)
	g.Set(1, 1, "界", false)

	c, _, st, _ := s.GetContent(78, 24)
	fg, bg, _ := st.Decompose()
	if c != 'h' || fg != tcell.NewHexColor(0xffff55) || bg != tcell.NewHexColor(0x0000aa) {
		t.Errorf("cell = %q %v on %v", c, fg, bg)
	}
	if c, _, _, _ := s.GetContent(79, 24); c != 'i' {
		t.Errorf("last column = %q", c)
	}
	if c, _, _, _ := s.GetContent(0, 0); c != '?' {
		t.Errorf("wide glyph shown as %q", c)
	}
	if cell := g.Cell(0, 0); cell.Char != '界' {
		t.Errorf("grid lost wide glyph: %q", cell.Char)
	}

	g.Copy(79, 25, 2, 1, -78, -24)
	if c, _, _, _ := s.GetContent(1, 0); c != 'i' {
		t.Errorf("copy not redrawn: %q", c)
	}
}

func TestComponents(t *testing.T) {
	r := &component.Registry{}
	g, _ := newTextGPU(t)
	scr, addr := Register(r, g, func() []string { return []string{"kb"} })

	call := func(name string, args ...any) ([]any, error) {
		return r.Invoke(addr, name, args)
	}
	for _, c := range []struct {
		name string
		args []any
		want []any
	}{
		{"getScreen", nil, []any{scr}},
		{"getResolution", nil, []any{80, 25}},
		{"maxDepth", nil, []any{4}},
		{"getForeground", nil, []any{15, true}},
		{"setForeground", []any{float64(0xff0000)}, []any{0xaa0000, 4}},
		{"setBackground", []any{2.0, true}, []any{0x00aa00, 2}},
		{"set", []any{1.0, 1.0, "hey"}, []any{true}},
		{"get", []any{2.0, 1.0}, []any{"e", 0xaa0000, 0x00aa00, 4, 2}},
		{"getPaletteColor", []any{9.0}, []any{0x5555ff}},
		{"fill", []any{1.0, 2.0, 3.0, 1.0, "="}, []any{true}},
		{"copy", []any{1.0, 1.0, 3.0, 2.0, 0.0, 1.0}, []any{true}},
		{"get", []any{3.0, 3.0}, []any{"=", 0xaa0000, 0x00aa00, 4, 2}},
		{"setResolution", []any{40.0, 10.0}, []any{false}},
	} {
		got, err := call(c.name, c.args...)
		if err != nil || !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s%v = %v, %v; want %v", c.name, c.args, got, err, c.want)
		}
	}

	for _, c := range []struct {
		name string
		args []any
		err  error
	}{
		{"bind", []any{scr}, component.ErrUnsupported},
		{"getPaletteColor", []any{16.0}, ErrPaletteIndex},
		{"setBackground", []any{99.0, true}, ErrPaletteIndex},
		{"get", []any{0.0, 1.0}, ErrPosition},
		{"set", []any{1.0, 1.0, "\xff"}, ErrInvalidUTF8},
		{"set", []any{1.5, 1.0, "x"}, component.ErrInvalidArgument},
		{"copy", []any{1.0, 1.0, 1.0}, component.ErrInvalidArgument},
	} {
		if _, err := call(c.name, c.args...); !errors.Is(err, c.err) {
			t.Errorf("%s%v error = %v, want %v", c.name, c.args, err, c.err)
		}
	}

	got, err := r.Invoke(scr, "getKeyboards", nil)
	if err != nil || !reflect.DeepEqual(got, []any{[]string{"kb"}}) {
		t.Errorf("getKeyboards = %v, %v", got, err)
	}
}
