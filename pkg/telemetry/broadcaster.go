package telemetry

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is one published frame as sent to stream clients.
type Event struct {
	Session string `json:"session"`
	Frame
}

// Broadcaster is a Sink that distributes each frame, JSON encoded, to every
// subscribed client. Slow clients miss frames instead of blocking the
// control loop.
type Broadcaster struct {
	session string

	mu      sync.RWMutex
	clients map[chan string]struct{}
	pending []Line
	seq     uint64
	last    string
}

// NewBroadcaster creates a broadcaster that tags events with session.
func NewBroadcaster(session string) *Broadcaster {
	return &Broadcaster{
		session: session,
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast messages and a cleanup function.
// The caller must call the returned cleanup when done (e.g. on client disconnect).
func (b *Broadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

func (b *Broadcaster) AddData(caption string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, Line{Caption: caption, Value: FormatValue(value)})
}

func (b *Broadcaster) Update() {
	b.mu.Lock()
	b.seq++
	evt := Event{
		Session: b.session,
		Frame:   Frame{Seq: b.seq, Time: time.Now(), Lines: b.pending},
	}
	b.pending = nil
	data, err := json.Marshal(evt)
	if err != nil {
		b.mu.Unlock()
		return
	}
	payload := string(data)
	b.last = payload
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// Last returns the most recent encoded event, or "" before the first Update.
func (b *Broadcaster) Last() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last
}
