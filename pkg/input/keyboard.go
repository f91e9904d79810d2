package input

import "sync"

// Keyboard latches key presses until the next sample. A terminal cannot
// report held keys, so each press counts for exactly one tick.
type Keyboard struct {
	mu      sync.Mutex
	pending Snapshot
}

// NewKeyboard creates a keyboard source with nothing pressed.
func NewKeyboard() *Keyboard {
	return &Keyboard{pending: make(Snapshot)}
}

// PressLow latches the low trigger for group (AllGroups for every group).
func (k *Keyboard) PressLow(group string) {
	k.press(group, Triggers{Low: true})
}

// PressHigh latches the high trigger for group (AllGroups for every group).
func (k *Keyboard) PressHigh(group string) {
	k.press(group, Triggers{High: true})
}

func (k *Keyboard) press(group string, t Triggers) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pending.merge(Snapshot{group: t})
}

// Sample returns and clears the latched presses.
func (k *Keyboard) Sample() (Snapshot, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	snap := k.pending
	k.pending = make(Snapshot)
	return snap, nil
}
