// Package robot holds the bounded actuator control core: per-actuator
// ranges, scaling of normalized commands, run-mode sequencing and command
// dispatch.
package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnconfiguredActuator is returned when no bounds are registered for
	// an actuator.
	ErrUnconfiguredActuator = errors.New("unconfigured actuator")
	// ErrRegistrySealed is returned when registering bounds after the
	// session started.
	ErrRegistrySealed = errors.New("bounds registry sealed")
)

// ServoBounds is the physical range of a servo. Lower may exceed Upper.
type ServoBounds struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Scale maps a normalized value onto the range. Values outside [0, 1]
// extrapolate past the bounds.
func (b ServoBounds) Scale(norm float64) float64 {
	return b.Lower + norm*(b.Upper-b.Lower)
}

// MotorBounds is the encoder range of a motor, in ticks. Lower may exceed
// Upper.
type MotorBounds struct {
	Lower int32 `yaml:"lower"`
	Upper int32 `yaml:"upper"`
}

// Scale maps a normalized value onto the range and truncates toward zero.
// Values outside [0, 1] extrapolate past the bounds.
func (b MotorBounds) Scale(norm float64) int32 {
	lower, upper := float64(b.Lower), float64(b.Upper)
	return int32(lower + norm*(upper-lower))
}

// Registry holds one bounds record per actuator. It is filled from the
// config and sealed when the session starts.
type Registry struct {
	servos map[string]ServoBounds
	motors map[string]MotorBounds
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		servos: make(map[string]ServoBounds),
		motors: make(map[string]MotorBounds),
	}
}

// RegisterServo stores the bounds of a servo.
func (r *Registry) RegisterServo(name string, b ServoBounds) error {
	if r.sealed {
		return fmt.Errorf("register servo %q: %w", name, ErrRegistrySealed)
	}
	r.servos[name] = b
	return nil
}

// RegisterMotor stores the bounds of a motor.
func (r *Registry) RegisterMotor(name string, b MotorBounds) error {
	if r.sealed {
		return fmt.Errorf("register motor %q: %w", name, ErrRegistrySealed)
	}
	r.motors[name] = b
	return nil
}

// Servo returns the bounds of a servo.
func (r *Registry) Servo(name string) (ServoBounds, error) {
	b, ok := r.servos[name]
	if !ok {
		return ServoBounds{}, fmt.Errorf("servo %q: %w", name, ErrUnconfiguredActuator)
	}
	return b, nil
}

// Motor returns the bounds of a motor.
func (r *Registry) Motor(name string) (MotorBounds, error) {
	b, ok := r.motors[name]
	if !ok {
		return MotorBounds{}, fmt.Errorf("motor %q: %w", name, ErrUnconfiguredActuator)
	}
	return b, nil
}

// Seal rejects all further registrations.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	return r.sealed
}
