// Package hw defines the actuator handles the test core drives and the
// hardware backends that resolve them by name.
package hw

import (
	"context"
	"errors"
)

// ErrActuatorNotFound is returned by a Map when no actuator is wired under
// the requested name.
var ErrActuatorNotFound = errors.New("actuator not found")

// RunMode is the run mode of a position-controlled motor.
type RunMode int

const (
	// ModeUnknown is the power-on state before any mode was commanded.
	ModeUnknown RunMode = iota
	// ModeReset stops the motor and zeroes its encoder.
	ModeReset
	// ModeRunUsingEncoder runs the motor with encoder feedback enabled.
	ModeRunUsingEncoder
	// ModeRunToPosition drives the motor to its target position.
	ModeRunToPosition
)

func (m RunMode) String() string {
	switch m {
	case ModeReset:
		return "reset"
	case ModeRunUsingEncoder:
		return "run_using_encoder"
	case ModeRunToPosition:
		return "run_to_position"
	default:
		return "unknown"
	}
}

// Servo is a continuous position actuator. It has no mode and accepts a
// position in [0, 1] at any time.
type Servo interface {
	SetPosition(ctx context.Context, pos float64) error
}

// Motor is an encoder-equipped motor that closes its own position loop once
// it is in ModeRunToPosition.
type Motor interface {
	SetMode(ctx context.Context, mode RunMode) error
	SetTargetPosition(ctx context.Context, ticks int32) error
	SetPower(ctx context.Context, power float64) error
	CurrentPosition(ctx context.Context) (int32, error)
}

// Map resolves actuator handles by the name they are wired under.
type Map interface {
	Servo(name string) (Servo, error)
	Motor(name string) (Motor, error)
	Close() error
}
