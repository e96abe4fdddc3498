package main

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/occ/component"
	"github.com/nf/occ/machine"
	"github.com/nf/occ/script"
	"github.com/nf/occ/signal"
)

var debugCommands = []string{"push", "list", "methods", "reset", "exit"}

type debugView struct {
	r      *machine.Runner
	reboot chan bool

	log   *tview.TextView
	comps *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application
}

func newDebugView() *debugView {
	d := &debugView{
		reboot: make(chan bool, 1),
		log: tview.NewTextView().
			SetMaxLines(1000),
		comps: tview.NewTextView().
			SetWrap(false),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.comps.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.comps, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 1, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		cmd, arg, ok := strings.Cut(t, " ")
		if !ok {
			for _, c := range debugCommands {
				if t != "" && strings.HasPrefix(c, t) {
					entries = append(entries, c)
				}
			}
			return
		}
		if cmd != "methods" {
			return
		}
		if m := d.r.Machine(); m != nil {
			for _, c := range m.Registry.All() {
				if strings.HasPrefix(c.Address, arg) {
					entries = append(entries, cmd+" "+c.Address)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := d.input.GetText()
		if line == "" {
			return
		}
		d.input.SetText("")
		d.command(line)
	})
	return d
}

func (d *debugView) Run() error { return d.app.Run() }

func (d *debugView) command(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "exit":
		d.app.Stop()
		return
	case "reset":
		select {
		case d.reboot <- true:
		default:
		}
		return
	}

	m := d.r.Machine()
	if m == nil {
		log.Printf("no machine")
		return
	}
	switch cmd {
	case "push":
		if len(args) == 0 {
			log.Printf("usage: push <name> [args]")
			return
		}
		if err := m.Signals.PushArgs(args[0], parseArgs(args[1:])...); err != nil {
			log.Printf("push: %v", err)
			return
		}
		log.Printf("pushed %q", args[0])
	case "list":
		for _, c := range m.Registry.All() {
			log.Printf("%s %s", c.Address, c.Type)
		}
	case "methods":
		if len(args) != 1 {
			log.Printf("usage: methods <address>")
			return
		}
		c, err := lookup(m.Registry, args[0])
		if err != nil {
			log.Printf("methods: %v", err)
			return
		}
		var names []string
		for _, method := range c.Methods {
			names = append(names, method.Name+flagString(method.Flags))
		}
		sort.Strings(names)
		log.Printf("%s %s: %s", c.Type, c.Address, strings.Join(names, " "))
	default:
		log.Printf("unknown command %q (try %s)", cmd, strings.Join(debugCommands, ", "))
	}
}

// lookup finds the component whose address starts with prefix.
func lookup(r *component.Registry, prefix string) (*component.Component, error) {
	var found *component.Component
	for _, c := range r.All() {
		if !strings.HasPrefix(c.Address, prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("ambiguous address %q", prefix)
		}
		found = c
	}
	if found == nil {
		return nil, component.ErrNoSuchComponent
	}
	return found, nil
}

func flagString(f component.Flag) string {
	var s string
	if f.Direct() {
		s += "d"
	}
	if f.Getter() {
		s += "g"
	}
	if f.Setter() {
		s += "s"
	}
	if s == "" {
		return ""
	}
	return "[" + s + "]"
}

// parseArgs converts command words to signal arguments: numbers, booleans
// and nil are recognized, and everything else is a string.
func parseArgs(words []string) []any {
	args := make([]any, len(words))
	for i, w := range words {
		switch w {
		case "true":
			args[i] = true
		case "false":
			args[i] = false
		case "nil":
			args[i] = nil
		default:
			if f, err := strconv.ParseFloat(w, 64); err == nil {
				args[i] = f
			} else {
				args[i] = w
			}
		}
	}
	return args
}

func (d *debugView) StateFunc(m *machine.Machine, st script.State) {
	var (
		comps = componentsContent(m)
		state = fmt.Sprintf("%s  up %.1fs  signals %d/%d  %s",
			st, m.Uptime().Seconds(), m.Signals.Len(), signal.Capacity, m.Address)
	)
	d.app.QueueUpdateDraw(func() {
		switch st {
		case script.Running, script.Suspended, script.Loaded:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case script.Completed:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case script.Failed:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.comps.SetText(comps)
		d.state.SetText(state)
	})
}

func componentsContent(m *machine.Machine) string {
	var b strings.Builder
	for _, c := range m.Registry.All() {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-10s %.8s", c.Type, c.Address)
	}
	return b.String()
}
