package gpu

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Text is a VGA-style 80x25 text mode adapter drawn on a terminal.
type Text struct {
	s tcell.Screen
}

func NewText(s tcell.Screen) *Text { return &Text{s: s} }

// Config describes the text mode: 16 colours from the VGA palette.
func (t *Text) Config() Config {
	return Config{Width: 80, Height: 25, Depth: 4, Palette: VGA}
}

// Draw puts c in the terminal cell at x, y. Glyphs that don't occupy
// exactly one terminal column are shown as '?'.
func (t *Text) Draw(x, y int, c rune, fg, bg int) {
	switch {
	case c == 0:
		c = ' '
	case runewidth.RuneWidth(c) != 1:
		c = '?'
	}
	st := tcell.StyleDefault.Foreground(vgaColor(fg)).Background(vgaColor(bg))
	t.s.SetContent(x, y, c, nil, st)
}

func vgaColor(i int) tcell.Color {
	return tcell.NewHexColor(int32(VGA[i&0xf]))
}
