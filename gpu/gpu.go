// Package gpu implements a character-cell display: a grid of glyphs with
// foreground and background colours that is projected onto a physical
// backend (a text-mode adapter or a pixel framebuffer).
//
// The grid is the authoritative record of what is displayed. Backends only
// ever receive 0-based coordinates that are inside the grid.
package gpu

import (
	"errors"
	"log"
)

var (
	ErrPaletteIndex = errors.New("palette index is outside bounds of palette")
	ErrPosition     = errors.New("position out of bounds")
	ErrNoPalette    = errors.New("no palette exists for this GPU")
)

// Backend draws cells on a physical display.
type Backend interface {
	// Draw draws c at column x, row y. fg and bg are palette indexes if
	// the display has a palette and 24-bit RGB values otherwise.
	Draw(x, y int, c rune, fg, bg int)
}

// BlockCopier is implemented by backends that can move a block of cells
// natively. The target tx, ty is absolute.
type BlockCopier interface {
	BlockCopy(x, y, w, h, tx, ty int)
}

// Config describes a display.
type Config struct {
	Width, Height int // in cells
	Depth         int // bits of colour
	Palette       []int
}

// Cell is one position of the grid.
type Cell struct {
	Char   rune
	FG, BG int // palette index or RGB, like the GPU's colours
}

// GPU owns the cell grid and the current colours.
type GPU struct {
	// Logf, if set, receives messages shown on the error screen.
	Logf func(format string, args ...any)

	cfg     Config
	backend Backend
	copier  BlockCopier

	fg, bg int
	cells  []Cell
}

// New returns a GPU for the display described by cfg, clears it and draws
// the cleared grid on b.
func New(cfg Config, b Backend) *GPU {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		panic("gpu: display needs a positive resolution")
	}
	g := &GPU{
		cfg:     cfg,
		backend: b,
		cells:   make([]Cell, cfg.Width*cfg.Height),
	}
	g.copier, _ = b.(BlockCopier)
	g.fg, g.bg = g.resolve(0xffffff), g.resolve(0x000000)
	g.fill(0, 0, cfg.Width, cfg.Height, ' ')
	return g
}

// resolve maps an RGB value to the colour representation of the display.
func (g *GPU) resolve(rgb int) int {
	if len(g.cfg.Palette) == 0 {
		return rgb
	}
	return Nearest(g.cfg.Palette, rgb)
}

func (g *GPU) HasPalette() bool { return len(g.cfg.Palette) > 0 }
func (g *GPU) Depth() int       { return g.cfg.Depth }

// Resolution returns the grid size in cells.
func (g *GPU) Resolution() (w, h int) { return g.cfg.Width, g.cfg.Height }

// Foreground returns the current foreground colour.
func (g *GPU) Foreground() int { return g.fg }

// Background returns the current background colour.
func (g *GPU) Background() int { return g.bg }

// PaletteColor returns the RGB value of palette entry i.
func (g *GPU) PaletteColor(i int) (int, error) {
	if !g.HasPalette() {
		return 0, ErrNoPalette
	}
	if i < 0 || i >= len(g.cfg.Palette) {
		return 0, ErrPaletteIndex
	}
	return g.cfg.Palette[i], nil
}

// SetForeground sets the foreground colour and returns the new value.
// See setColor.
func (g *GPU) SetForeground(color int, isIndex bool) (int, error) {
	return g.setColor(&g.fg, color, isIndex)
}

// SetBackground sets the background colour and returns the new value.
func (g *GPU) SetBackground(color int, isIndex bool) (int, error) {
	return g.setColor(&g.bg, color, isIndex)
}

// setColor stores color in *dst. Without a palette color is taken as RGB.
// With a palette, an RGB color is quantized to the nearest entry and an
// index must be inside the palette.
func (g *GPU) setColor(dst *int, color int, isIndex bool) (int, error) {
	if !g.HasPalette() {
		*dst = color
		return color, nil
	}
	if !isIndex {
		color = Nearest(g.cfg.Palette, color)
	}
	if color < 0 || color >= len(g.cfg.Palette) {
		return 0, ErrPaletteIndex
	}
	*dst = color
	return color, nil
}

// Cell returns the cell at 0-based x, y.
func (g *GPU) Cell(x, y int) Cell { return g.cells[y*g.cfg.Width+x] }

// Get returns the cell at 1-based x, y.
func (g *GPU) Get(x, y int) (Cell, error) {
	x, y = x-1, y-1
	if x < 0 || y < 0 || x >= g.cfg.Width || y >= g.cfg.Height {
		return Cell{}, ErrPosition
	}
	return g.Cell(x, y), nil
}

func (g *GPU) put(x, y int, c rune) {
	g.backend.Draw(x, y, c, g.fg, g.bg)
	g.cells[y*g.cfg.Width+x] = Cell{Char: c, FG: g.fg, BG: g.bg}
}

// Set writes text starting at 1-based x, y, moving right or, if vertical,
// down. Glyphs outside the grid are dropped. Nothing is written if text is
// not valid UTF-8.
func (g *GPU) Set(x, y int, text string, vertical bool) error {
	rs, err := DecodeStrict(text)
	if err != nil {
		return err
	}
	x, y = x-1, y-1
	for _, c := range rs {
		if x >= 0 && y >= 0 && x < g.cfg.Width && y < g.cfg.Height {
			g.put(x, y, c)
		}
		if vertical {
			if y++; y >= g.cfg.Height {
				break
			}
		} else {
			if x++; x >= g.cfg.Width {
				break
			}
		}
	}
	return nil
}

// Fill writes the first glyph of s into every cell of the w×h rectangle at
// 1-based x, y, clipped to the grid. An empty s or an empty rectangle is a
// no-op.
func (g *GPU) Fill(x, y, w, h int, s string) error {
	if s == "" || w <= 0 || h <= 0 {
		return nil
	}
	c, _, err := decodeRune(s)
	if err != nil {
		return err
	}
	g.fill(x-1, y-1, x-1+w, y-1+h, c)
	return nil
}

func (g *GPU) fill(x0, y0, x1, y1 int, c rune) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, g.cfg.Width), min(y1, g.cfg.Height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g.put(x, y, c)
		}
	}
}

// Copy moves the w×h rectangle at 1-based x, y by dx, dy. Parts of the
// source or target that fall outside the grid are clipped; if nothing is
// left, or the displacement is zero, Copy does nothing.
func (g *GPU) Copy(x, y, w, h, dx, dy int) error {
	if w <= 0 || h <= 0 || (dx == 0 && dy == 0) {
		return nil
	}
	x, y = x-1, y-1
	tx, ty := x+dx, y+dy
	x, tx, w = clip(x, tx, w, g.cfg.Width)
	y, ty, h = clip(y, ty, h, g.cfg.Height)
	if w <= 0 || h <= 0 {
		return nil
	}

	if g.copier != nil {
		g.copier.BlockCopy(x, y, w, h, tx, ty)
	}
	g.move(x, y, w, h, tx, ty)
	if g.copier == nil {
		for cy := ty; cy < ty+h; cy++ {
			for cx := tx; cx < tx+w; cx++ {
				c := g.Cell(cx, cy)
				g.backend.Draw(cx, cy, c.Char, c.FG, c.BG)
			}
		}
	}
	return nil
}

// clip shrinks the span of n cells at from, copied to to, so that both
// lie within [0, size).
func clip(from, to, n, size int) (int, int, int) {
	if from < 0 {
		n += from
		to -= from
		from = 0
	}
	if to < 0 {
		n += to
		from -= to
		to = 0
	}
	n = min(n, size-from, size-to)
	return from, to, n
}

// move copies grid rows in the order that keeps overlapping source rows
// intact until they have been read.
func (g *GPU) move(x, y, w, h, tx, ty int) {
	row := func(y, x int) []Cell {
		i := y*g.cfg.Width + x
		return g.cells[i : i+w]
	}
	if ty < y {
		for i := 0; i < h; i++ {
			copy(row(ty+i, tx), row(y+i, x))
		}
	} else {
		for i := h - 1; i >= 0; i-- {
			copy(row(ty+i, tx), row(y+i, x))
		}
	}
}

// ErrorScreen clears the display to white on blue (or the nearest palette
// colours) and shows msg, wrapping at the grid width and at newlines and
// stopping at the bottom of the grid. The colours in use before the call
// are restored afterwards.
func (g *GPU) ErrorScreen(msg string) {
	if g.Logf != nil {
		g.Logf("%s", msg)
	} else {
		log.Print(msg)
	}

	fg, bg := g.fg, g.bg
	defer func() { g.fg, g.bg = fg, bg }()
	g.fg, g.bg = g.resolve(0xffffff), g.resolve(0x0000ff)
	g.fill(0, 0, g.cfg.Width, g.cfg.Height, ' ')

	x, y := 0, 0
	for _, c := range msg {
		if c >= ' ' {
			g.put(x, y, c)
		}
		x++
		if x >= g.cfg.Width || c == '\n' {
			x = 0
			if y++; y >= g.cfg.Height {
				break
			}
		}
	}
}

func min(v int, vs ...int) int {
	for _, w := range vs {
		if w < v {
			v = w
		}
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
