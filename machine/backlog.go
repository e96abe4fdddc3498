package machine

import (
	"io"
	"sync"
)

const maxBacklog = 100

// backlog keeps the most recent log lines written while the terminal is
// owned by the screen.
type backlog struct {
	mu      sync.Mutex
	entries [][]byte
	n       int
}

func (b *backlog) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	line := append([]byte(nil), p...)
	if len(b.entries) < maxBacklog {
		b.entries = append(b.entries, line)
	} else {
		b.entries[b.n] = line
	}
	b.n = (b.n + 1) % maxBacklog
	return len(p), nil
}

// Emit writes the kept lines to w, oldest first.
func (b *backlog) Emit(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) < maxBacklog {
		for _, e := range b.entries {
			w.Write(e)
		}
		return
	}
	for i := 0; i < maxBacklog; i++ {
		w.Write(b.entries[(b.n+i)%maxBacklog])
	}
}
