package gpu

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Framebuffer is a linear RGBA framebuffer with direct 24-bit colour and
// glyphs from a fixed bitmap font. It is safe to read from a display
// goroutine while the GPU draws.
type Framebuffer struct {
	mu   sync.Mutex
	img  *image.RGBA
	face *basicfont.Face
	cols int
	rows int
	gen  int
}

// NewFramebuffer returns a framebuffer of cols×rows character cells.
func NewFramebuffer(cols, rows int) *Framebuffer {
	face := basicfont.Face7x13
	return &Framebuffer{
		img:  image.NewRGBA(image.Rect(0, 0, cols*face.Advance, rows*face.Height)),
		face: face,
		cols: cols,
		rows: rows,
	}
}

func (f *Framebuffer) Config() Config {
	return Config{Width: f.cols, Height: f.rows, Depth: 24}
}

// Bounds returns the size of the framebuffer in pixels.
func (f *Framebuffer) Bounds() image.Rectangle { return f.img.Bounds() }

func (f *Framebuffer) cell(x, y int) image.Rectangle {
	w, h := f.face.Advance, f.face.Height
	return image.Rect(x*w, y*h, (x+1)*w, (y+1)*h)
}

func rgb(c int) color.RGBA {
	return color.RGBA{uint8(c >> 16), uint8(c >> 8), uint8(c), 0xff}
}

func (f *Framebuffer) Draw(x, y int, c rune, fg, bg int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++

	r := f.cell(x, y)
	draw.Draw(f.img, r, image.NewUniform(rgb(bg)), image.Point{}, draw.Src)
	if c == ' ' || c == 0 {
		return
	}
	d := font.Drawer{
		Dst:  f.img,
		Src:  image.NewUniform(rgb(fg)),
		Face: f.face,
		Dot:  fixed.P(r.Min.X, r.Min.Y+f.face.Ascent),
	}
	d.DrawString(string(c))
}

// BlockCopy moves the pixels of a block of cells. Rows are visited in the
// order that reads each overlapping row before it is overwritten.
func (f *Framebuffer) BlockCopy(x, y, w, h, tx, ty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++

	src := f.cell(x, y).Union(f.cell(x+w-1, y+h-1))
	dst := src.Add(f.cell(tx, ty).Min.Sub(src.Min))
	n := src.Dx() * 4
	row := func(r image.Rectangle, i int) []byte {
		o := f.img.PixOffset(r.Min.X, r.Min.Y+i)
		return f.img.Pix[o : o+n]
	}
	if dst.Min.Y < src.Min.Y {
		for i := 0; i < src.Dy(); i++ {
			copy(row(dst, i), row(src, i))
		}
	} else {
		for i := src.Dy() - 1; i >= 0; i-- {
			copy(row(dst, i), row(src, i))
		}
	}
}

// Generation counts the changes made to the framebuffer.
func (f *Framebuffer) Generation() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

// CopyTo copies the framebuffer into dst and returns its generation.
func (f *Framebuffer) CopyTo(dst draw.Image) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	draw.Draw(dst, dst.Bounds(), f.img, image.Point{}, draw.Src)
	return f.gen
}
