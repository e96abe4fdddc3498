package signal

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

// countingMask records how critical sections nest.
type countingMask struct {
	mu       sync.Mutex
	disabled bool
	sections int
}

func (m *countingMask) Disable() {
	m.mu.Lock()
	if m.disabled {
		panic("interrupts disabled twice")
	}
	m.disabled = true
	m.sections++
}

func (m *countingMask) Enable() {
	if !m.disabled {
		panic("interrupts enabled twice")
	}
	m.disabled = false
	m.mu.Unlock()
}

func TestFIFO(t *testing.T) {
	q := New(nil)
	for i := 0; i < Capacity; i++ {
		if err := q.PushArgs(fmt.Sprint(i), float64(i)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if g := q.Len(); g != Capacity {
		t.Fatalf("Len() = %d, want %d", g, Capacity)
	}
	for i := 0; i < Capacity; i++ {
		ev, ok := q.Pull(0)
		if !ok {
			t.Fatalf("pull %d: empty", i)
		}
		want := Event{Name: fmt.Sprint(i), Args: []any{float64(i)}}
		if !reflect.DeepEqual(ev, want) {
			t.Fatalf("pull %d = %v, want %v", i, ev, want)
		}
	}
	if _, ok := q.Pull(0); ok {
		t.Errorf("pull from drained queue succeeded")
	}
	if g := q.Pending(); g != 0 {
		t.Errorf("%d argument lists leaked", g)
	}
}

func TestOverflow(t *testing.T) {
	q := New(nil)
	for i := 0; i < Capacity; i++ {
		if !q.Push(Signal{Name: fmt.Sprint(i)}) {
			t.Fatalf("push %d refused", i)
		}
	}
	if err := q.PushArgs("extra", 1.0, 2.0); !errors.Is(err, ErrQueueFull) {
		t.Errorf("PushArgs on full queue error = %v, want %v", err, ErrQueueFull)
	}
	if q.PushKey("key_down", KeyEvent{}) {
		t.Errorf("PushKey on full queue succeeded")
	}
	if g := q.Pending(); g != 0 {
		t.Errorf("refused push left %d argument lists behind", g)
	}
	for i := 0; i < Capacity; i++ {
		ev, ok := q.Pull(0)
		if !ok || ev.Name != fmt.Sprint(i) {
			t.Fatalf("pull %d = %v, %v", i, ev, ok)
		}
	}
}

func TestWraparound(t *testing.T) {
	q := New(nil)
	for round := 0; round < 5; round++ {
		for i := 0; i < Capacity*3/4; i++ {
			q.PushArgs("s", float64(round*1000+i))
		}
		for i := 0; i < Capacity*3/4; i++ {
			ev, ok := q.Pull(0)
			if !ok {
				t.Fatalf("round %d: empty at %d", round, i)
			}
			if g, w := ev.Args[0], float64(round*1000+i); g != w {
				t.Fatalf("round %d: got %v, want %v", round, g, w)
			}
		}
	}
}

func TestEmptyPull(t *testing.T) {
	q := New(nil)
	done := make(chan bool)
	go func() {
		q.Pull(time.Hour)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pull blocked on an empty queue")
	}
}

func TestPayloads(t *testing.T) {
	q := New(nil)
	q.PushArgs("none")
	q.PushKey("key_down", KeyEvent{Address: "kb", Char: 'a', Code: 0x1e})
	q.PushArgs("mixed", "s", true, nil, 4.0)

	for _, want := range []Event{
		{Name: "none"},
		{Name: "key_down", Args: []any{"kb", float64('a'), float64(0x1e)}},
		{Name: "mixed", Args: []any{"s", true, nil, 4.0}},
	} {
		ev, ok := q.Pull(0)
		if !ok || !reflect.DeepEqual(ev, want) {
			t.Errorf("pull = %#v, %v; want %#v", ev, ok, want)
		}
	}
}

func TestArgsCopied(t *testing.T) {
	q := New(nil)
	args := []any{1.0}
	q.PushArgs("x", args...)
	args[0] = 2.0
	ev, _ := q.Pull(0)
	if ev.Args[0] != 1.0 {
		t.Errorf("queued args alias the caller's slice")
	}
}

func TestCriticalSections(t *testing.T) {
	m := &countingMask{}
	q := New(m)
	q.PushArgs("a", 1.0)
	q.PushKey("b", KeyEvent{})
	q.Pull(0)
	q.Pull(0)
	q.Pull(0)
	if m.sections != 5 {
		t.Errorf("%d critical sections, want 5", m.sections)
	}
}

func TestConcurrentProducers(t *testing.T) {
	q := New(nil)
	const producers, each = 4, 1000
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				for !q.PushKey("key_down", KeyEvent{Code: p*each + i}) {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	got := 0
	for got < producers*each {
		ev, ok := q.Pull(0)
		if !ok {
			continue
		}
		code := int(ev.Args[2].(float64))
		p, i := code/each, code%each
		if i <= last[p] {
			t.Fatalf("producer %d: %d delivered after %d", p, i, last[p])
		}
		last[p] = i
		got++
	}
	wg.Wait()
}

func TestLogf(t *testing.T) {
	q := New(nil)
	var msgs []string
	q.Logf = func(format string, args ...any) { msgs = append(msgs, fmt.Sprintf(format, args...)) }
	q.Pull(5 * time.Second)
	if len(msgs) != 1 || msgs[0] != "pull with timeout 5s" {
		t.Errorf("log = %q", msgs)
	}
}
