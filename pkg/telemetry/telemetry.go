// Package telemetry carries status lines from the control session to the
// operator: a terminal view, the process log and an optional HTTP stream.
package telemetry

import (
	"fmt"
	"time"

	"github.com/gwillem/portstest/pkg/debug"
)

// Sink receives caption/value lines. Lines accumulate until Update
// publishes them as one frame.
type Sink interface {
	AddData(caption string, value any)
	Update()
}

// Line is one caption/value pair.
type Line struct {
	Caption string `json:"caption"`
	Value   string `json:"value"`
}

// Frame is the set of lines published by one Update.
type Frame struct {
	Seq   uint64    `json:"seq"`
	Time  time.Time `json:"time"`
	Lines []Line    `json:"lines"`
}

// Get returns the value of the last line with caption.
func (f Frame) Get(caption string) (string, bool) {
	for i := len(f.Lines) - 1; i >= 0; i-- {
		if f.Lines[i].Caption == caption {
			return f.Lines[i].Value, true
		}
	}
	return "", false
}

// FormatValue renders values the way they appear on every sink.
func FormatValue(value any) string {
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%.3f", v)
	case float32:
		return fmt.Sprintf("%.3f", v)
	default:
		return fmt.Sprint(v)
	}
}

type multi []Sink

// Multi fans every call out to all sinks, in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) AddData(caption string, value any) {
	for _, s := range m {
		s.AddData(caption, value)
	}
}

func (m multi) Update() {
	for _, s := range m {
		s.Update()
	}
}

// LogSink writes each line to the debug log at live level. Update is a
// no-op.
type LogSink struct{}

func (LogSink) AddData(caption string, value any) {
	debug.Live("%s: %s", caption, FormatValue(value))
}

func (LogSink) Update() {}
