// Package script runs a Lua chunk as a resumable coroutine.
//
// The chunk suspends by calling coroutine.yield at its top level. The
// execution loop resumes it right away; suspension exists so that the host
// can deliver events between resumes.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// State is the lifecycle state of a Script.
type State int

const (
	Loaded State = iota
	Running
	Suspended
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrFinished is returned when resuming a script that has completed or
// failed.
var ErrFinished = errors.New("script finished")

// LoadError reports a chunk that does not compile.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Name, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Script is a compiled chunk bound to its own coroutine.
type Script struct {
	// OnSuspend, if set, is called by Run each time the script suspends,
	// before it is resumed again.
	OnSuspend func()

	name   string
	l      *lua.LState
	co     *lua.LState
	cancel context.CancelFunc
	fn     *lua.LFunction

	state   State
	err     error
	resumes int
}

// Load compiles src in l and prepares a coroutine to run it.
func Load(l *lua.LState, name string, src []byte) (*Script, error) {
	fn, err := l.Load(bytes.NewReader(src), name)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	co, cancel := l.NewThread()
	return &Script{name: name, l: l, co: co, cancel: cancel, fn: fn}, nil
}

func (s *Script) Name() string        { return s.name }
func (s *Script) State() State        { return s.state }
func (s *Script) Resumes() int        { return s.resumes }
func (s *Script) Err() error          { return s.err }
func (s *Script) Thread() *lua.LState { return s.co }

// Resume runs the script until it suspends, completes or fails, and
// returns the resulting state. The error is the script's runtime error,
// including its traceback.
func (s *Script) Resume() (State, error) {
	switch s.state {
	case Completed, Failed:
		return s.state, ErrFinished
	}
	s.state = Running
	s.resumes++
	st, err, _ := s.l.Resume(s.co, s.fn)
	switch st {
	case lua.ResumeOK:
		s.state = Completed
	case lua.ResumeYield:
		s.state = Suspended
	default:
		s.state, s.err = Failed, err
	}
	return s.state, s.err
}

// Run resumes the script until it completes or fails, or ctx is done.
// It returns nil on completion, the script error on failure, and the
// context error on cancellation.
func (s *Script) Run(ctx context.Context) error {
	s.co.SetContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		switch st, err := s.Resume(); st {
		case Completed:
			return nil
		case Failed:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if s.OnSuspend != nil {
			s.OnSuspend()
		}
	}
}

// Close releases the coroutine.
func (s *Script) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
