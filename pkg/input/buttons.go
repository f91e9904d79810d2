package input

import (
	"fmt"

	"github.com/gwillem/portstest/pkg/hw/gpio"
)

// Buttons reads two push buttons wired active low. They apply to every
// tested group.
type Buttons struct {
	drv     gpio.Driver
	lowPin  int
	highPin int
}

// NewButtons sets both pins up as pulled-up inputs.
func NewButtons(drv gpio.Driver, lowPin, highPin int) (*Buttons, error) {
	for _, pin := range []int{lowPin, highPin} {
		if err := drv.SetupInput(pin); err != nil {
			return nil, fmt.Errorf("setup button pin %d: %w", pin, err)
		}
	}
	return &Buttons{drv: drv, lowPin: lowPin, highPin: highPin}, nil
}

func (b *Buttons) Sample() (Snapshot, error) {
	low, err := b.pressed(b.lowPin)
	if err != nil {
		return nil, err
	}
	high, err := b.pressed(b.highPin)
	if err != nil {
		return nil, err
	}
	return Snapshot{AllGroups: {Low: low, High: high}}, nil
}

func (b *Buttons) pressed(pin int) (bool, error) {
	level, err := b.drv.ReadPin(pin)
	if err != nil {
		return false, fmt.Errorf("read button pin %d: %w", pin, err)
	}
	return level == gpio.Low, nil
}

// Close releases the GPIO driver.
func (b *Buttons) Close() error {
	return b.drv.Close()
}
