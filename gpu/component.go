package gpu

import "github.com/nf/occ/component"

// Register installs a screen and a gpu component for g on r and returns
// their addresses. keyboards reports the keyboards attached to the screen.
func Register(r *component.Registry, g *GPU, keyboards func() []string) (screen, gpu string) {
	s := component.New("screen")
	s.Add("isOn", component.Direct|component.Getter, component.Const(true)).
		Add("turnOn", 0, component.Const(false, true)).
		Add("turnOff", 0, component.Const(false, true)).
		Add("getAspectRatio", component.Direct|component.Getter, component.Const(1, 1)).
		Add("getKeyboards", 0, func(component.Args) ([]any, error) {
			var kbs []string
			if keyboards != nil {
				kbs = keyboards()
			}
			return component.Results(kbs), nil
		}).
		Add("setPrecise", 0, component.Const(false)).
		Add("isPrecise", component.Direct|component.Getter, component.Const(false)).
		Add("setTouchModeInverted", 0, component.Const(false)).
		Add("isTouchModeInverted", component.Direct|component.Getter, component.Const(false))
	r.Register(s)

	c := component.New("gpu")
	m := methods{g: g}
	c.Add("bind", 0, component.Unsupported).
		Add("getScreen", component.Direct|component.Getter, component.Const(s.Address)).
		Add("getBackground", component.Direct|component.Getter, m.getBackground).
		Add("setBackground", component.Direct|component.Setter, m.setBackground).
		Add("getForeground", component.Direct|component.Getter, m.getForeground).
		Add("setForeground", component.Direct|component.Setter, m.setForeground).
		Add("getPaletteColor", component.Direct, m.getPaletteColor).
		Add("setPaletteColor", component.Direct, component.Unsupported).
		Add("maxDepth", component.Direct|component.Getter, m.depth).
		Add("getDepth", component.Direct|component.Getter, m.depth).
		Add("setDepth", 0, component.Unsupported).
		Add("maxResolution", component.Direct|component.Getter, m.resolution).
		Add("getResolution", component.Direct|component.Getter, m.resolution).
		Add("setResolution", 0, component.Const(false)).
		Add("getViewport", component.Direct|component.Getter, m.resolution).
		Add("setViewport", 0, component.Const(false)).
		Add("get", component.Direct, m.get).
		Add("set", component.Direct, m.set).
		Add("copy", component.Direct, m.copy).
		Add("fill", component.Direct, m.fill)
	r.Register(c)

	return s.Address, c.Address
}

type methods struct{ g *GPU }

func (m methods) color(c int) []any {
	if m.g.HasPalette() {
		return component.Results(c, true)
	}
	return component.Results(c, false)
}

func (m methods) getBackground(component.Args) ([]any, error) { return m.color(m.g.bg), nil }
func (m methods) getForeground(component.Args) ([]any, error) { return m.color(m.g.fg), nil }

func (m methods) setBackground(a component.Args) ([]any, error) {
	return m.setColor(a, m.g.SetBackground)
}

func (m methods) setForeground(a component.Args) ([]any, error) {
	return m.setColor(a, m.g.SetForeground)
}

func (m methods) setColor(a component.Args, set func(int, bool) (int, error)) ([]any, error) {
	c, err := a.CheckInt(0)
	if err != nil {
		return nil, err
	}
	v, err := set(c, a.OptBool(1, false))
	if err != nil {
		return nil, err
	}
	if !m.g.HasPalette() {
		return component.Results(v), nil
	}
	return component.Results(m.g.cfg.Palette[v], v), nil
}

func (m methods) getPaletteColor(a component.Args) ([]any, error) {
	i, err := a.CheckInt(0)
	if err != nil {
		return nil, err
	}
	c, err := m.g.PaletteColor(i)
	if err != nil {
		return nil, err
	}
	return component.Results(c), nil
}

func (m methods) depth(component.Args) ([]any, error) {
	return component.Results(m.g.Depth()), nil
}

func (m methods) resolution(component.Args) ([]any, error) {
	w, h := m.g.Resolution()
	return component.Results(w, h), nil
}

func (m methods) get(a component.Args) ([]any, error) {
	x, err := a.CheckInt(0)
	if err != nil {
		return nil, err
	}
	y, err := a.CheckInt(1)
	if err != nil {
		return nil, err
	}
	c, err := m.g.Get(x, y)
	if err != nil {
		return nil, err
	}
	if !m.g.HasPalette() {
		return component.Results(string(c.Char), c.FG, c.BG, nil, nil), nil
	}
	p := m.g.cfg.Palette
	return component.Results(string(c.Char), p[c.FG], p[c.BG], c.FG, c.BG), nil
}

func (m methods) set(a component.Args) ([]any, error) {
	x, err := a.CheckInt(0)
	if err != nil {
		return nil, err
	}
	y, err := a.CheckInt(1)
	if err != nil {
		return nil, err
	}
	s, err := a.CheckString(2)
	if err != nil {
		return nil, err
	}
	if err := m.g.Set(x, y, s, a.OptBool(3, false)); err != nil {
		return nil, err
	}
	return component.Results(true), nil
}

func (m methods) ints(a component.Args, n int) ([]int, error) {
	v := make([]int, n)
	for i := range v {
		var err error
		if v[i], err = a.CheckInt(i); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (m methods) copy(a component.Args) ([]any, error) {
	v, err := m.ints(a, 6)
	if err != nil {
		return nil, err
	}
	if err := m.g.Copy(v[0], v[1], v[2], v[3], v[4], v[5]); err != nil {
		return nil, err
	}
	return component.Results(true), nil
}

func (m methods) fill(a component.Args) ([]any, error) {
	v, err := m.ints(a, 4)
	if err != nil {
		return nil, err
	}
	s, err := a.CheckString(4)
	if err != nil {
		return nil, err
	}
	if err := m.g.Fill(v[0], v[1], v[2], v[3], s); err != nil {
		return nil, err
	}
	return component.Results(true), nil
}
