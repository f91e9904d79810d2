package teleop

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate is the operator's session control: a blocking start and a
// non-blocking stop request.
type Gate interface {
	WaitForStart(ctx context.Context) error
	StopRequested() bool
}

// Switch is a Gate driven by Start and Stop calls from another goroutine.
// Stop before Start releases WaitForStart, and the session then exits
// without commanding anything.
type Switch struct {
	started   chan struct{}
	startOnce sync.Once
	stopped   atomic.Bool
}

// NewSwitch creates a switch that is neither started nor stopped.
func NewSwitch() *Switch {
	return &Switch{started: make(chan struct{})}
}

// Start releases WaitForStart.
func (s *Switch) Start() {
	s.startOnce.Do(func() { close(s.started) })
}

// Stop requests the session to end.
func (s *Switch) Stop() {
	s.stopped.Store(true)
	s.Start()
}

// Started reports whether Start or Stop was called.
func (s *Switch) Started() bool {
	select {
	case <-s.started:
		return true
	default:
		return false
	}
}

func (s *Switch) WaitForStart(ctx context.Context) error {
	select {
	case <-s.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Switch) StopRequested() bool {
	return s.stopped.Load()
}
