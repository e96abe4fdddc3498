// Package signal implements the machine's signal queue: a bounded FIFO of
// events filled by interrupt handlers and native calls and drained by the
// guest loop.
package signal

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Capacity is the number of signals the queue can hold.
const Capacity = 128

var ErrQueueFull = errors.New("too many signals")

// Interrupts masks the producers that may touch the queue concurrently with
// the consumer. Disable and Enable bracket every critical section.
type Interrupts interface {
	Disable()
	Enable()
}

type mutexMask struct{ mu sync.Mutex }

func (m *mutexMask) Disable() { m.mu.Lock() }
func (m *mutexMask) Enable()  { m.mu.Unlock() }

// NewMask returns an Interrupts implementation backed by a mutex, for hosts
// where producers run truly concurrently with the consumer.
func NewMask() Interrupts { return &mutexMask{} }

// Kind discriminates the payload of a Signal.
type Kind uint8

const (
	Generic Kind = iota
	Keyboard
)

func (k Kind) String() string {
	switch k {
	case Generic:
		return "generic"
	case Keyboard:
		return "keyboard"
	}
	return "unknown"
}

// KeyEvent is the inline payload of a keyboard signal.
type KeyEvent struct {
	Address string // keyboard component
	Char    rune
	Code    int
}

// Signal is a queued event.
type Signal struct {
	Name string
	Kind Kind
	Key  KeyEvent // Keyboard only

	// Generic only: the key of the argument list in the transient store.
	store string
	nargs int
}

// Event is a signal as delivered to the guest.
type Event struct {
	Name string
	Args []any
}

// Queue is a fixed-capacity ring buffer of signals.
// The zero value is not usable; use New.
type Queue struct {
	// Logf, if set, receives diagnostic messages.
	Logf func(format string, args ...any)

	irq   Interrupts
	buf   [Capacity]Signal
	head  int
	count int
	args  map[string][]any
}

// New returns an empty queue whose critical sections are guarded by irq.
// If irq is nil a mutex mask is used.
func New(irq Interrupts) *Queue {
	if irq == nil {
		irq = NewMask()
	}
	return &Queue{irq: irq, args: make(map[string][]any)}
}

func (q *Queue) logf(format string, args ...any) {
	if q.Logf != nil {
		q.Logf(format, args...)
	}
}

// Push enqueues s and reports whether there was room for it.
// A full queue drops s; queued signals are never overwritten.
func (q *Queue) Push(s Signal) bool {
	q.irq.Disable()
	defer q.irq.Enable()
	return q.push(s)
}

func (q *Queue) push(s Signal) bool {
	if q.count >= Capacity {
		return false
	}
	q.buf[(q.head+q.count)%Capacity] = s
	q.count++
	return true
}

// PushArgs enqueues a generic signal carrying args.
func (q *Queue) PushArgs(name string, args ...any) error {
	s := Signal{Name: name, Kind: Generic, nargs: len(args)}
	if len(args) > 0 {
		s.store = uuid.NewString()
	}

	q.irq.Disable()
	defer q.irq.Enable()
	if !q.push(s) {
		q.logf("signal %q dropped: queue full", name)
		return ErrQueueFull
	}
	if s.nargs > 0 {
		q.args[s.store] = append([]any(nil), args...)
	}
	return nil
}

// PushKey enqueues a keyboard signal.
func (q *Queue) PushKey(name string, ev KeyEvent) bool {
	ok := q.Push(Signal{Name: name, Kind: Keyboard, Key: ev})
	if !ok {
		q.logf("signal %q dropped: queue full", name)
	}
	return ok
}

// Pull removes the oldest signal and returns it as an Event, or reports
// false if the queue is empty. It never blocks; timeout is only logged.
func (q *Queue) Pull(timeout time.Duration) (Event, bool) {
	if timeout > 0 {
		q.logf("pull with timeout %v", timeout)
	}

	q.irq.Disable()
	defer q.irq.Enable()
	if q.count == 0 {
		return Event{}, false
	}
	s := q.buf[q.head]
	q.buf[q.head] = Signal{}
	q.head = (q.head + 1) % Capacity
	q.count--

	ev := Event{Name: s.Name}
	switch s.Kind {
	case Generic:
		if s.nargs > 0 {
			ev.Args = q.args[s.store]
			delete(q.args, s.store)
		}
	case Keyboard:
		ev.Args = []any{s.Key.Address, float64(s.Key.Char), float64(s.Key.Code)}
	}
	return ev, true
}

// Len returns the number of queued signals.
func (q *Queue) Len() int {
	q.irq.Disable()
	defer q.irq.Enable()
	return q.count
}

// Pending returns the number of argument lists held for queued signals.
func (q *Queue) Pending() int {
	q.irq.Disable()
	defer q.irq.Enable()
	return len(q.args)
}
