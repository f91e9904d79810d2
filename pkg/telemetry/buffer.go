package telemetry

import (
	"sync"
	"time"
)

// Buffer collects lines and publishes them as frames on a channel that
// always holds the newest frame. A slow reader misses intermediate frames,
// never the latest one.
type Buffer struct {
	mu      sync.Mutex
	pending []Line
	seq     uint64
	frames  chan Frame
	last    Frame
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{frames: make(chan Frame, 1)}
}

func (b *Buffer) AddData(caption string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, Line{Caption: caption, Value: FormatValue(value)})
}

func (b *Buffer) Update() {
	b.mu.Lock()
	b.seq++
	f := Frame{Seq: b.seq, Time: time.Now(), Lines: b.pending}
	b.pending = nil
	b.last = f
	b.mu.Unlock()

	select {
	case b.frames <- f:
	default:
		// Drop old frame if channel full, replace with new
		select {
		case <-b.frames:
		default:
		}
		select {
		case b.frames <- f:
		default:
		}
	}
}

// Frames returns the channel frames are published on.
func (b *Buffer) Frames() <-chan Frame {
	return b.frames
}

// Last returns the most recent frame.
func (b *Buffer) Last() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}
