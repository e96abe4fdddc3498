package machine

import (
	"context"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/nf/occ/gpu"
	"github.com/nf/occ/script"
)

// StateFunc is told when a machine starts and when its firmware stops.
type StateFunc func(*Machine, script.State)

// Runner drives machines on a display, either a GUI window or the
// terminal, until the user quits.
type Runner struct {
	gui bool
	dev bool
	sf  StateFunc

	reset     chan []byte
	resetDone chan bool
	quit      chan bool
	quitOnce  sync.Once

	mu  sync.Mutex
	cur *Machine
}

func NewRunner(enableGUI, devMode bool, sf StateFunc) *Runner {
	return &Runner{
		gui:       enableGUI,
		dev:       devMode,
		sf:        sf,
		reset:     make(chan []byte),
		resetDone: make(chan bool),
		quit:      make(chan bool),
	}
}

// Quit closes the display, which makes Run return.
func (r *Runner) Quit() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// Reset replaces the running machine with a new one booting archive.
// It does nothing once the runner has quit.
func (r *Runner) Reset(archive []byte) {
	if !r.dev {
		panic("Reset called while not running in dev mode")
	}
	select {
	case r.reset <- archive:
	case <-r.quit:
		return
	}
	select {
	case <-r.resetDone:
	case <-r.quit:
	}
}

// Machine returns the current machine, or nil before the first boot.
func (r *Runner) Machine() *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

func (r *Runner) setMachine(m *Machine) {
	r.mu.Lock()
	r.cur = m
	r.mu.Unlock()
}

func (r *Runner) state(m *Machine, s script.State) {
	if r.sf != nil {
		r.sf(m, s)
	}
}

// key delivers a key press or release to the current machine.
func (r *Runner) key(char rune, code int, down bool) {
	m := r.Machine()
	if m == nil {
		return
	}
	if down {
		m.PressKey(char, code)
	} else {
		m.ReleaseKey(char, code)
	}
}

// Run boots cfg on the runner's display and returns when the user quits.
// The exit code is 1 if the last boot failed.
func (r *Runner) Run(cfg Config) (exitCode int) {
	var (
		done = make(chan error)
		ui   func() error
	)
	if r.gui {
		fb := gpu.NewFramebuffer(Cols, Rows)
		cfg.Display = fb
		ui = func() error { return runGUI(fb, r) }
	} else {
		s, err := tcell.NewScreen()
		if err != nil {
			log.Printf("terminal: %v", err)
			return 1
		}
		if err := s.Init(); err != nil {
			log.Printf("terminal: %v", err)
			return 1
		}
		// The terminal belongs to the screen until it is finalized.
		var bl backlog
		prev := log.Writer()
		log.SetOutput(&bl)
		defer func() {
			s.Fini()
			log.SetOutput(prev)
			bl.Emit(prev)
		}()
		cfg.Display = gpu.NewText(s)
		ui = func() error { return runTerm(s, r) }
	}

	go r.loop(cfg, done)
	if err := ui(); err != nil {
		log.Printf("ui: %v", err)
		exitCode = 1
	}
	r.Quit()
	if err := <-done; err != nil && exitCode == 0 {
		exitCode = 1
	}
	return exitCode
}

// loop boots machines one after another: the first from cfg, then one
// per reset. It sends the result of the last boot on done once the runner
// quits.
func (r *Runner) loop(cfg Config, done chan<- error) {
	for {
		m := New(cfg)
		r.setMachine(m)
		ctx, cancel := context.WithCancel(context.Background())
		booted := make(chan error, 1)
		go func() { booted <- m.Boot(ctx) }()
		r.state(m, script.Running)

		var (
			err     error
			running = true
			stop    = func() {
				cancel()
				if running {
					<-booted
				}
				m.Close()
			}
		)
	wait:
		for {
			select {
			case err = <-booted:
				running = false
				if err != nil {
					log.Printf("machine: %v", err)
				}
				r.state(m, m.State())
			case cfg.Archive = <-r.reset:
				stop()
				select {
				case r.resetDone <- true:
				case <-r.quit:
				}
				break wait
			case <-r.quit:
				stop()
				done <- err
				return
			}
		}
	}
}
