package machine

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/occ/gpu"
)

// runGUI shows fb in a window, scaled to fit, and feeds the window's key
// events to the runner until the window is closed or Quit is called.
func runGUI(fb *gpu.Framebuffer, r *Runner) error {
	driver.Main(func(s screen.Screen) {
		fbSize := fb.Bounds().Size()
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  "occ",
			Width:  fbSize.X * 2,
			Height: fbSize.Y * 2,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer w.Release()

		buf, err := s.NewBuffer(fbSize)
		if err != nil {
			log.Fatal(err)
		}
		defer buf.Release()
		tex, err := s.NewTexture(fbSize)
		if err != nil {
			log.Fatal(err)
		}
		defer tex.Release()

		type (
			update struct{}
			quit   struct{}
		)
		exit := make(chan bool)
		defer close(exit)
		go func() {
			t := time.NewTicker(time.Second / 60)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(update{})
				case <-r.quit:
					w.Send(quit{})
					return
				case <-exit:
					return
				}
			}
		}()

		var (
			sz  size.Event
			gen = -1
		)
		for {
			e := w.NextEvent()

			switch e := e.(type) {
			case update, quit:
			case paint.Event:
			case mouse.Event:
			case key.Event:
			default:
				format := "got %#v\n"
				if _, ok := e.(fmt.Stringer); ok {
					format = "got %v\n"
				}
				log.Printf(format, e)
			}

			switch e := e.(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}
				gen = -1

			case quit:
				return

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case paint.Event:
				gen = -1

			case key.Event:
				if char, code, ok := GUIKey(e); ok {
					r.key(char, code, e.Direction != key.DirRelease)
				}

			case update:
				if fb.Generation() == gen {
					break
				}
				gen = fb.CopyTo(buf.RGBA())
				tex.Upload(image.Point{}, buf, buf.Bounds())
				w.Scale(sz.Bounds(), tex, tex.Bounds(), draw.Src, nil)
				w.Publish()

			case error:
				log.Print(e)
			}
		}
	})
	return nil
}
