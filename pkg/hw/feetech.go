package hw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/portstest/pkg/debug"
)

const (
	// FeetechMaxRaw is the top of the STS position register range.
	FeetechMaxRaw = 4095
	// FeetechFullSpeed is the travel speed, in ticks per second, at power 1.
	FeetechFullSpeed = 3400
)

// FeetechConfig selects the serial bus servos are wired to.
type FeetechConfig struct {
	Port     string
	BaudRate int
	MoveTime time.Duration // travel time for servo position writes; 0 = as fast as possible
}

// Feetech resolves actuators to servos on a Feetech STS bus. Servos map
// [0, 1] onto the full register range; motors are servos driven in position
// mode with a software encoder zero.
type Feetech struct {
	bus      *feetech.Bus
	found    map[int]feetech.FoundServo
	servoIDs map[string]int
	motorIDs map[string]int
	moveTime time.Duration
}

// OpenFeetech opens the bus and scans for every configured servo ID.
// IDs missing from the bus are reported at lookup time, not here.
func OpenFeetech(ctx context.Context, cfg FeetechConfig, servoIDs, motorIDs map[string]int) (*Feetech, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 1_000_000
	}
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	lo, hi := IDRange(servoIDs, motorIDs)
	found := make(map[int]feetech.FoundServo)
	if hi > 0 {
		servos, err := bus.Scan(ctx, lo, hi)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("scan bus %s: %w", cfg.Port, err)
		}
		for _, s := range servos {
			debug.Trace("feetech: found servo id=%d on %s", s.ID, cfg.Port)
			found[s.ID] = s
		}
	}
	debug.Info("Feetech bus %s: %d servo(s) found", cfg.Port, len(found))

	return &Feetech{
		bus:      bus,
		found:    found,
		servoIDs: servoIDs,
		motorIDs: motorIDs,
		moveTime: cfg.MoveTime,
	}, nil
}

// IDRange returns the lowest and highest bus ID across sets, or 0, 0 when
// there are none.
func IDRange(sets ...map[string]int) (lo, hi int) {
	for _, ids := range sets {
		for _, id := range ids {
			if lo == 0 || id < lo {
				lo = id
			}
			if id > hi {
				hi = id
			}
		}
	}
	return lo, hi
}

func (f *Feetech) lookup(kind, name string, ids map[string]int) (*feetech.Servo, error) {
	id, ok := ids[name]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrActuatorNotFound)
	}
	s, ok := f.found[id]
	if !ok {
		return nil, fmt.Errorf("%s %q (id %d not on bus): %w", kind, name, id, ErrActuatorNotFound)
	}
	return feetech.NewServo(f.bus, s.ID, s.Model), nil
}

// Servo implements Map.
func (f *Feetech) Servo(name string) (Servo, error) {
	s, err := f.lookup("servo", name, f.servoIDs)
	if err != nil {
		return nil, err
	}
	return &feetechServo{name: name, servo: s, moveTime: f.moveTime}, nil
}

// Motor implements Map.
func (f *Feetech) Motor(name string) (Motor, error) {
	s, err := f.lookup("motor", name, f.motorIDs)
	if err != nil {
		return nil, err
	}
	return &feetechMotor{name: name, servo: s}, nil
}

// Close closes the bus connection.
func (f *Feetech) Close() error {
	return f.bus.Close()
}

type feetechServo struct {
	name     string
	servo    *feetech.Servo
	moveTime time.Duration
}

func (s *feetechServo) SetPosition(ctx context.Context, pos float64) error {
	raw := int(pos * FeetechMaxRaw)
	debug.Trace("feetech servo %s: raw position %d", s.name, raw)
	if err := s.servo.SetPositionWithTime(ctx, raw, int(s.moveTime.Milliseconds())); err != nil {
		return fmt.Errorf("servo %s: set position: %w", s.name, err)
	}
	return nil
}

// feetechMotor emulates an encoder motor on a position servo. Reset
// releases torque and records the current raw position as encoder zero.
type feetechMotor struct {
	name  string
	servo *feetech.Servo

	mu     sync.Mutex
	mode   RunMode
	zero   int
	target int32
	power  float64
}

func (m *feetechMotor) SetMode(ctx context.Context, mode RunMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch mode {
	case ModeReset:
		if err := m.servo.Disable(ctx); err != nil {
			return fmt.Errorf("motor %s: disable torque: %w", m.name, err)
		}
		raw, err := m.servo.Position(ctx)
		if err != nil {
			return fmt.Errorf("motor %s: read zero: %w", m.name, err)
		}
		m.zero = raw
		debug.Verbose("feetech motor %s: encoder zero at raw %d", m.name, raw)
	case ModeRunUsingEncoder:
		if err := m.servo.Enable(ctx); err != nil {
			return fmt.Errorf("motor %s: enable torque: %w", m.name, err)
		}
	case ModeRunToPosition:
		m.mode = mode
		return m.drive(ctx)
	}
	m.mode = mode
	return nil
}

func (m *feetechMotor) SetTargetPosition(ctx context.Context, ticks int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = ticks
	if m.mode == ModeRunToPosition {
		return m.drive(ctx)
	}
	return nil
}

func (m *feetechMotor) SetPower(ctx context.Context, power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = power
	if m.mode == ModeRunToPosition {
		return m.drive(ctx)
	}
	return nil
}

func (m *feetechMotor) CurrentPosition(ctx context.Context) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := m.servo.Position(ctx)
	if err != nil {
		return 0, fmt.Errorf("motor %s: read position: %w", m.name, err)
	}
	return int32(raw - m.zero), nil
}

// drive writes the goal with a travel time derived from power. Must be
// called with mu held.
func (m *feetechMotor) drive(ctx context.Context) error {
	if m.power <= 0 {
		return nil
	}
	cur, err := m.servo.Position(ctx)
	if err != nil {
		return fmt.Errorf("motor %s: read position: %w", m.name, err)
	}
	goal := m.zero + int(m.target)
	dist := goal - cur
	if dist < 0 {
		dist = -dist
	}
	ms := int(float64(dist) / (FeetechFullSpeed * m.power) * 1000)
	debug.Trace("feetech motor %s: goal raw %d in %d ms", m.name, goal, ms)
	if err := m.servo.SetPositionWithTime(ctx, goal, ms); err != nil {
		return fmt.Errorf("motor %s: set goal: %w", m.name, err)
	}
	return nil
}
