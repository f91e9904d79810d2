// Package teleop runs a port test session: it resolves the robot's
// actuators, resets motor encoders, then maps operator triggers to bounded
// actuator targets once per tick.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gwillem/portstest/pkg/debug"
	"github.com/gwillem/portstest/pkg/hw"
	"github.com/gwillem/portstest/pkg/input"
	"github.com/gwillem/portstest/pkg/robot"
	"github.com/gwillem/portstest/pkg/telemetry"
)

// Config holds configuration for the controller.
type Config struct {
	Robot     *robot.Config
	Hardware  hw.Map
	Input     input.Source
	Sink      telemetry.Sink
	Gate      Gate
	SessionID string // generated when empty
}

// Controller owns every actuator handle for the length of one session.
// All hardware access happens on the goroutine that calls Run.
type Controller struct {
	id     string
	hz     int
	robot  *robot.Config
	hw     hw.Map
	input  input.Source
	sink   telemetry.Sink
	gate   Gate
	bounds *robot.Registry
	groups []robot.Group

	servos    map[string]hw.Servo
	motors    map[string]*robot.Motor
	order     []*robot.Motor // every motor, hub order
	reported  []string       // bounded motors, read back each tick
	commander *robot.Commander

	mu      sync.Mutex
	running bool
	ticks   atomic.Uint64
	logCh   chan string
}

// NewController checks the configuration and builds the bounds registry.
// No hardware is touched until Run.
func NewController(cfg Config) (*Controller, error) {
	switch {
	case cfg.Robot == nil:
		return nil, errors.New("robot config is required")
	case cfg.Hardware == nil:
		return nil, errors.New("hardware map is required")
	case cfg.Input == nil:
		return nil, errors.New("input source is required")
	case cfg.Gate == nil:
		return nil, errors.New("gate is required")
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.LogSink{}
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	bounds, err := cfg.Robot.Registry()
	if err != nil {
		return nil, fmt.Errorf("build bounds: %w", err)
	}
	groups, err := cfg.Robot.TestedGroups()
	if err != nil {
		return nil, err
	}

	hz := cfg.Robot.Defaults.Hz
	if hz <= 0 {
		hz = 50
	}

	return &Controller{
		id:       cfg.SessionID,
		hz:       hz,
		robot:    cfg.Robot,
		hw:       cfg.Hardware,
		input:    cfg.Input,
		sink:     cfg.Sink,
		gate:     cfg.Gate,
		bounds:   bounds,
		groups:   groups,
		reported: cfg.Robot.BoundedMotors(),
		servos:   make(map[string]hw.Servo),
		motors:   make(map[string]*robot.Motor),
		logCh:    make(chan string, 10),
	}, nil
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Groups returns the tested groups.
func (c *Controller) Groups() []robot.Group {
	return c.groups
}

// Ticks returns the number of completed control ticks.
func (c *Controller) Ticks() uint64 {
	return c.ticks.Load()
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

func (c *Controller) log(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	debug.Info("%s", text)
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

func (c *Controller) status(text string) {
	c.sink.AddData("Status", text)
	c.sink.Update()
}

// fail reports err to the operator before the session aborts.
func (c *Controller) fail(err error) error {
	c.sink.AddData("Error", err.Error())
	c.sink.Update()
	c.log("Aborted: %v", err)
	return err
}

// Run initializes the hardware, waits for start, resets every motor
// encoder and then runs the control loop until the gate requests a stop
// (nil) or ctx ends (ctx.Err()). Any actuator error aborts the session.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	debug.Value("Session", c.id)
	if err := c.initHardware(); err != nil {
		return c.fail(err)
	}
	c.bounds.Seal()
	c.commander = robot.NewCommander(c.bounds, c.servos, c.motors)

	c.log("Waiting for start")
	if err := c.gate.WaitForStart(ctx); err != nil {
		return err
	}

	debug.Section("Encoder reset")
	if err := robot.ResetEncoders(ctx, c.order); err != nil {
		return c.fail(err)
	}
	c.log("Encoders reset on %d motor(s)", len(c.order))

	if c.gate.StopRequested() {
		c.log("Stop requested before start")
		return nil
	}

	c.log("Port test started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log("Port test stopped")
			return ctx.Err()
		case <-ticker.C:
		}
		if c.gate.StopRequested() {
			c.log("Port test stopped")
			return nil
		}
		if err := c.step(ctx); err != nil {
			return c.fail(err)
		}
	}
}

// initHardware resolves every actuator, hub by hub.
func (c *Controller) initHardware() error {
	c.order = nil
	for _, hub := range c.robot.Hubs {
		c.status("Initializing " + hub.Name)

		for _, mc := range hub.Motors {
			h, err := c.hw.Motor(mc.Name)
			if err != nil {
				return fmt.Errorf("%s: %w", hub.Name, err)
			}
			m := robot.NewMotor(mc.Name, h)
			c.motors[mc.Name] = m
			c.order = append(c.order, m)
		}
		for _, sc := range hub.Servos {
			h, err := c.hw.Servo(sc.Name)
			if err != nil {
				return fmt.Errorf("%s: %w", hub.Name, err)
			}
			c.servos[sc.Name] = h
		}

		c.status("Initialized " + hub.Name)
	}
	c.status("Initialized all")
	return nil
}

// step runs one tick: sample triggers, command the tested groups, report
// encoder positions.
func (c *Controller) step(ctx context.Context) error {
	snap, err := c.input.Sample()
	if err != nil {
		return fmt.Errorf("sample input: %w", err)
	}

	for _, g := range c.groups {
		t := snap.For(g.Name)
		if t.Low {
			if err := c.apply(ctx, g, 0.0); err != nil {
				return err
			}
		}
		if t.High {
			if err := c.apply(ctx, g, 1.0); err != nil {
				return err
			}
		}
	}

	for _, name := range c.reported {
		pos, err := c.motors[name].CurrentPosition(ctx)
		if err != nil {
			return err
		}
		c.sink.AddData("Current "+name+" position", pos)
	}
	c.sink.Update()
	c.ticks.Add(1)
	return nil
}

func (c *Controller) apply(ctx context.Context, g robot.Group, norm float64) error {
	cmd, err := c.commander.Apply(ctx, g, norm)
	if err != nil {
		return err
	}
	caption := "Setting " + g.Name + " position"
	if g.Kind == robot.KindMotor {
		c.sink.AddData(caption, int32(cmd.Targets[0].Value))
	} else {
		c.sink.AddData(caption, cmd.Targets[0].Value)
	}
	return nil
}
