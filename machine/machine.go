// Package machine assembles a component-bus computer: a Lua firmware
// image run against an EEPROM, a screen and GPU, a keyboard and a
// read-only filesystem, with a signal queue between the devices and the
// firmware.
package machine

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/nf/occ/component"
	"github.com/nf/occ/gpu"
	"github.com/nf/occ/script"
	"github.com/nf/occ/signal"
	"github.com/nf/occ/tarfs"
)

// Screen size of the framebuffer display, in cells.
const (
	Cols = 80
	Rows = 25
)

// BIOS is the archive path of the firmware.
const BIOS = "/bios.lua"

var (
	ErrNoArchive = errors.New("missing initrd")
	ErrNoBIOS    = errors.New("couldn't find bios.lua")
)

// Display is a GPU backend that knows its own geometry.
type Display interface {
	gpu.Backend
	Config() gpu.Config
}

type Config struct {
	Archive []byte // the initrd; nil if there is none
	Label   string // filesystem label
	Display Display

	// Logf, if set, receives diagnostic messages instead of the standard
	// logger.
	Logf func(format string, args ...any)
}

// Machine is one boot of the computer. It is not reusable: reset by
// making a new one.
type Machine struct {
	Address  string
	Registry *component.Registry
	Signals  *signal.Queue
	GPU      *gpu.GPU
	EEPROM   *EEPROM
	FS       *tarfs.FS // nil without an archive

	EEPROMAddress   string
	ScreenAddress   string
	GPUAddress      string
	KeyboardAddress string
	FSAddress       string

	logf  func(format string, args ...any)
	boot  time.Time
	l     *lua.LState
	state atomic.Int32
}

// New builds a machine and its devices. Components are registered in the
// order eeprom, screen, gpu, keyboard, filesystem.
func New(cfg Config) *Machine {
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}
	m := &Machine{
		Address:  component.NewAddress(),
		Registry: &component.Registry{},
		Signals:  signal.New(signal.NewMask()),
		EEPROM:   &EEPROM{},
		logf:     logf,
		boot:     time.Now(),
	}
	m.Signals.Logf = logf
	m.EEPROMAddress = registerEEPROM(m.Registry, m.EEPROM)

	m.GPU = gpu.New(cfg.Display.Config(), cfg.Display)
	m.GPU.Logf = logf
	m.KeyboardAddress = component.NewAddress()
	m.ScreenAddress, m.GPUAddress = gpu.Register(m.Registry, m.GPU, func() []string {
		return []string{m.KeyboardAddress}
	})
	m.Registry.Register(&component.Component{Address: m.KeyboardAddress, Type: "keyboard"})

	if cfg.Archive != nil {
		m.FS = tarfs.New(tarfs.NewArchive(cfg.Archive), cfg.Label)
		m.FSAddress = tarfs.Register(m.Registry, m.FS)
	}
	for _, c := range m.Registry.All() {
		logf("added %q component at %s", c.Type, c.Address)
	}

	m.l = m.openLua()
	return m
}

// Uptime returns the time since the machine was built.
func (m *Machine) Uptime() time.Duration { return time.Since(m.boot) }

// State returns the state of the firmware.
func (m *Machine) State() script.State { return script.State(m.state.Load()) }

func (m *Machine) setState(s script.State) { m.state.Store(int32(s)) }

// PressKey and ReleaseKey queue keyboard signals. They may be called from
// any goroutine.
func (m *Machine) PressKey(char rune, code int) bool {
	return m.Signals.PushKey("key_down", signal.KeyEvent{Address: m.KeyboardAddress, Char: char, Code: code})
}

func (m *Machine) ReleaseKey(char rune, code int) bool {
	return m.Signals.PushKey("key_up", signal.KeyEvent{Address: m.KeyboardAddress, Char: char, Code: code})
}

// Boot loads the firmware from the archive into the EEPROM and runs it
// until it finishes or ctx is done. Every outcome other than cancellation
// is shown on the screen.
func (m *Machine) Boot(ctx context.Context) error {
	err := m.run(ctx)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		m.setState(script.Failed)
		m.GPU.ErrorScreen(err.Error())
	default:
		m.setState(script.Completed)
		m.GPU.ErrorScreen("computer halted")
	}
	return err
}

func (m *Machine) run(ctx context.Context) error {
	if m.FS == nil {
		return ErrNoArchive
	}
	bios, ok := m.FS.Archive().Find(BIOS, tarfs.TypeReg)
	if !ok {
		return ErrNoBIOS
	}
	m.EEPROM.SetCode(bios.Data)
	if len(bios.Data) == 0 {
		return nil
	}

	s, err := script.Load(m.l, "bios.lua", bios.Data)
	if err != nil {
		return err
	}
	defer s.Close()
	m.setState(script.Running)
	return s.Run(ctx)
}

// Close releases the interpreter. The machine must not be running.
func (m *Machine) Close() { m.l.Close() }
