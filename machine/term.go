package machine

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// runTerm shows s and feeds its key events to the runner until Ctrl-C or
// Quit.
// Terminals report no key releases, so each key is pressed and released
// at once.
func runTerm(s tcell.Screen, r *Runner) error {
	var (
		events = make(chan tcell.Event)
		stop   = make(chan bool)
	)
	defer close(stop)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Show()
		case <-r.quit:
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC {
					return nil
				}
				if char, code, ok := TermKey(ev); ok {
					r.key(char, code, true)
					r.key(char, code, false)
				}
			case *tcell.EventResize:
				s.Sync()
			}
		}
	}
}
