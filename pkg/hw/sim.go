package hw

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gwillem/portstest/pkg/debug"
)

// ErrTargetNotSet is returned by a simulated motor asked to run to position
// before any target was written, as real motor controllers refuse that.
var ErrTargetNotSet = errors.New("target position not set")

// SimMaxStep is how many encoder ticks a simulated motor travels per
// position read at full power.
const SimMaxStep = 50

// Sim is an in-memory hardware map. Actuators must be added before they can
// be looked up, so wiring mistakes in the config surface the same way they
// do on the robot.
type Sim struct {
	mu     sync.Mutex
	servos map[string]*SimServo
	motors map[string]*SimMotor
}

// NewSim creates an empty simulated hardware map.
func NewSim() *Sim {
	return &Sim{
		servos: make(map[string]*SimServo),
		motors: make(map[string]*SimMotor),
	}
}

// AddServo wires a simulated servo under name.
func (s *Sim) AddServo(name string) *SimServo {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv := &SimServo{name: name}
	s.servos[name] = sv
	return sv
}

// AddMotor wires a simulated motor under name.
func (s *Sim) AddMotor(name string) *SimMotor {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &SimMotor{name: name}
	s.motors[name] = m
	return m
}

// Servo implements Map.
func (s *Sim) Servo(name string) (Servo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.servos[name]
	if !ok {
		return nil, fmt.Errorf("servo %q: %w", name, ErrActuatorNotFound)
	}
	return sv, nil
}

// Motor implements Map.
func (s *Sim) Motor(name string) (Motor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.motors[name]
	if !ok {
		return nil, fmt.Errorf("motor %q: %w", name, ErrActuatorNotFound)
	}
	return m, nil
}

// Close implements Map.
func (s *Sim) Close() error {
	debug.Trace("sim hardware closed")
	return nil
}

// SimServo records every position written to it.
type SimServo struct {
	mu      sync.Mutex
	name    string
	history []float64
}

func (sv *SimServo) SetPosition(_ context.Context, pos float64) error {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	debug.Trace("sim servo %s: position %.3f", sv.name, pos)
	sv.history = append(sv.history, pos)
	return nil
}

// Position returns the last commanded position, or 0 if none.
func (sv *SimServo) Position() float64 {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if len(sv.history) == 0 {
		return 0
	}
	return sv.history[len(sv.history)-1]
}

// History returns every position written, oldest first.
func (sv *SimServo) History() []float64 {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return append([]float64(nil), sv.history...)
}

// SimMotor models a motor controller with an encoder. In ModeRunToPosition
// each CurrentPosition call moves the encoder toward the target by up to
// SimMaxStep*power ticks.
type SimMotor struct {
	mu        sync.Mutex
	name      string
	mode      RunMode
	modes     []RunMode
	target    int32
	targetSet bool
	targets   []int32
	power     float64
	position  int32
}

func (m *SimMotor) SetMode(_ context.Context, mode RunMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	debug.Trace("sim motor %s: mode %s", m.name, mode)
	if mode == ModeRunToPosition && !m.targetSet {
		return fmt.Errorf("motor %q: %w", m.name, ErrTargetNotSet)
	}
	if mode == ModeReset {
		m.position = 0
		m.power = 0
	}
	m.mode = mode
	m.modes = append(m.modes, mode)
	return nil
}

func (m *SimMotor) SetTargetPosition(_ context.Context, ticks int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	debug.Trace("sim motor %s: target %d", m.name, ticks)
	m.target = ticks
	m.targetSet = true
	m.targets = append(m.targets, ticks)
	return nil
}

func (m *SimMotor) SetPower(_ context.Context, power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	debug.Trace("sim motor %s: power %.2f", m.name, power)
	m.power = power
	return nil
}

func (m *SimMotor) CurrentPosition(_ context.Context) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeRunToPosition && m.power > 0 {
		step := int32(SimMaxStep * m.power)
		if step < 1 {
			step = 1
		}
		switch delta := m.target - m.position; {
		case delta > step:
			m.position += step
		case delta < -step:
			m.position -= step
		default:
			m.position = m.target
		}
	}
	return m.position, nil
}

// Mode returns the current run mode.
func (m *SimMotor) Mode() RunMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Modes returns every mode set, oldest first.
func (m *SimMotor) Modes() []RunMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunMode(nil), m.modes...)
}

// Targets returns every target written, oldest first.
func (m *SimMotor) Targets() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int32(nil), m.targets...)
}

// Power returns the last power written.
func (m *SimMotor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}
