package robot

import (
	"context"
	"errors"
	"fmt"

	"github.com/gwillem/portstest/pkg/debug"
	"github.com/gwillem/portstest/pkg/hw"
)

// ErrInvalidModeTransition is returned when a motor is commanded before its
// encoder reference was established by Reset followed by RunUsingEncoder.
var ErrInvalidModeTransition = errors.New("invalid mode transition")

// Motor guards a hardware motor with the run-mode lifecycle. Position
// commands are accepted only after the motor went through ModeReset and
// then directly into ModeRunUsingEncoder; a later Reset clears that again.
type Motor struct {
	name       string
	hw         hw.Motor
	mode       hw.RunMode
	referenced bool
}

// NewMotor wraps m. The initial mode is hw.ModeUnknown.
func NewMotor(name string, m hw.Motor) *Motor {
	return &Motor{name: name, hw: m}
}

// Name returns the name the motor is wired under.
func (m *Motor) Name() string {
	return m.name
}

// Mode returns the last mode successfully set.
func (m *Motor) Mode() hw.RunMode {
	return m.mode
}

// Referenced reports whether the encoder reference is established.
func (m *Motor) Referenced() bool {
	return m.referenced
}

func (m *Motor) invalid(op string) error {
	return fmt.Errorf("motor %s: %s in mode %s: %w", m.name, op, m.mode, ErrInvalidModeTransition)
}

// SetMode commands a run mode. The tracked state only changes when the
// hardware accepted the command.
func (m *Motor) SetMode(ctx context.Context, mode hw.RunMode) error {
	switch mode {
	case hw.ModeReset, hw.ModeRunUsingEncoder:
	case hw.ModeRunToPosition:
		if !m.referenced {
			return m.invalid("run to position")
		}
	default:
		return m.invalid("set mode " + mode.String())
	}

	if err := m.hw.SetMode(ctx, mode); err != nil {
		return fmt.Errorf("motor %s: set mode %s: %w", m.name, mode, err)
	}
	debug.Verbose("motor %s: %s -> %s", m.name, m.mode, mode)

	switch mode {
	case hw.ModeReset:
		m.referenced = false
	case hw.ModeRunUsingEncoder:
		if m.mode == hw.ModeReset {
			m.referenced = true
		}
	}
	m.mode = mode
	return nil
}

// SetTargetPosition sets the encoder target. In ModeRunToPosition this
// just moves the goal.
func (m *Motor) SetTargetPosition(ctx context.Context, ticks int32) error {
	if !m.referenced {
		return m.invalid("set target position")
	}
	if err := m.hw.SetTargetPosition(ctx, ticks); err != nil {
		return fmt.Errorf("motor %s: set target position: %w", m.name, err)
	}
	return nil
}

// SetPower sets the power used to reach the target.
func (m *Motor) SetPower(ctx context.Context, power float64) error {
	if !m.referenced {
		return m.invalid("set power")
	}
	if err := m.hw.SetPower(ctx, power); err != nil {
		return fmt.Errorf("motor %s: set power: %w", m.name, err)
	}
	return nil
}

// CurrentPosition reads the encoder. Reading is allowed in any mode.
func (m *Motor) CurrentPosition(ctx context.Context) (int32, error) {
	pos, err := m.hw.CurrentPosition(ctx)
	if err != nil {
		return 0, fmt.Errorf("motor %s: current position: %w", m.name, err)
	}
	return pos, nil
}

// RunToPosition writes target and power, then switches to
// ModeRunToPosition unless the motor is already there.
func (m *Motor) RunToPosition(ctx context.Context, ticks int32, power float64) error {
	if err := m.SetTargetPosition(ctx, ticks); err != nil {
		return err
	}
	if err := m.SetPower(ctx, power); err != nil {
		return err
	}
	if m.mode == hw.ModeRunToPosition {
		return nil
	}
	return m.SetMode(ctx, hw.ModeRunToPosition)
}

// ResetEncoders puts every motor into ModeReset, then every motor into
// ModeRunUsingEncoder. It stops at the first failure.
func ResetEncoders(ctx context.Context, motors []*Motor) error {
	for _, m := range motors {
		if err := m.SetMode(ctx, hw.ModeReset); err != nil {
			return fmt.Errorf("reset encoders: %w", err)
		}
	}
	for _, m := range motors {
		if err := m.SetMode(ctx, hw.ModeRunUsingEncoder); err != nil {
			return fmt.Errorf("reset encoders: %w", err)
		}
	}
	debug.Info("Encoders reset on %d motor(s)", len(motors))
	return nil
}
