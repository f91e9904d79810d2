package robot

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "portstest.yaml"

// Hardware backends.
const (
	BackendSim     = "sim"
	BackendFeetech = "feetech"
)

// Config holds the robot wiring, bounds and test selection.
type Config struct {
	Hardware HardwareConfig `yaml:"hardware"`
	Buttons  *ButtonsConfig `yaml:"buttons,omitempty"` // optional GPIO trigger buttons
	Hubs     []HubConfig    `yaml:"hubs"`
	Groups   []Group        `yaml:"groups"`
	Test     []string       `yaml:"test"` // groups driven by the triggers
	Defaults DefaultsConfig `yaml:"defaults"`
}

// HardwareConfig selects the hardware backend.
type HardwareConfig struct {
	Backend    string `yaml:"backend"`                // "sim" or "feetech"
	Port       string `yaml:"port,omitempty"`         // serial port of the servo bus
	BaudRate   int    `yaml:"baud_rate,omitempty"`    // defaults to 1000000
	MoveTimeMs int    `yaml:"move_time_ms,omitempty"` // servo travel time, 0 = fastest
}

// ButtonsConfig wires the low/high triggers to GPIO pins (BCM numbering).
type ButtonsConfig struct {
	LowPin  int  `yaml:"low_pin"`
	HighPin int  `yaml:"high_pin"`
	Mock    bool `yaml:"mock"` // use mock GPIO (dev/test)
}

// HubConfig lists the actuators wired to one hub. Hubs are initialized in
// order.
type HubConfig struct {
	Name   string        `yaml:"name"`
	Motors []MotorConfig `yaml:"motors,omitempty"`
	Servos []ServoConfig `yaml:"servos,omitempty"`
}

// MotorConfig describes one motor. Motors without bounds are resolved and
// reset but never commanded.
type MotorConfig struct {
	Name   string       `yaml:"name"`
	ID     int          `yaml:"id,omitempty"` // bus ID for the feetech backend
	Bounds *MotorBounds `yaml:"bounds,omitempty"`
}

// ServoConfig describes one servo. Servos without bounds are resolved but
// never commanded.
type ServoConfig struct {
	Name   string       `yaml:"name"`
	ID     int          `yaml:"id,omitempty"`
	Bounds *ServoBounds `yaml:"bounds,omitempty"`
}

// DefaultsConfig contains session parameters.
type DefaultsConfig struct {
	Hz         int `yaml:"hz"`                 // control loop frequency
	DebugLevel int `yaml:"debug_level"`        // 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	WebPort    int `yaml:"web_port,omitempty"` // telemetry stream port, 0 = disabled
}

// LoadConfigFrom reads, validates and fills defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the wiring and fills defaults. It also derives each
// group's Kind.
func (c *Config) Validate() error {
	switch c.Hardware.Backend {
	case "":
		c.Hardware.Backend = BackendSim
	case BackendSim:
	case BackendFeetech:
		if c.Hardware.Port == "" {
			return errors.New("hardware.port is required for the feetech backend")
		}
	default:
		return fmt.Errorf("unsupported hardware backend: %s", c.Hardware.Backend)
	}
	if c.Hardware.BaudRate <= 0 {
		c.Hardware.BaudRate = 1_000_000
	}
	if c.Defaults.Hz <= 0 {
		c.Defaults.Hz = 50
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.Buttons != nil && (c.Buttons.LowPin <= 0 || c.Buttons.HighPin <= 0 || c.Buttons.LowPin == c.Buttons.HighPin) {
		return fmt.Errorf("buttons: low_pin and high_pin must be distinct positive pins, got %d and %d",
			c.Buttons.LowPin, c.Buttons.HighPin)
	}

	kinds := make(map[string]Kind)
	bounded := make(map[string]bool)
	ids := make(map[int]string)
	for _, hub := range c.Hubs {
		if hub.Name == "" {
			return errors.New("hub name is required")
		}
		for _, m := range hub.Motors {
			if err := addActuator(kinds, m.Name, KindMotor); err != nil {
				return err
			}
			if err := claimID(ids, m.Name, m.ID); err != nil {
				return err
			}
			bounded[m.Name] = m.Bounds != nil
		}
		for _, s := range hub.Servos {
			if err := addActuator(kinds, s.Name, KindServo); err != nil {
				return err
			}
			if err := claimID(ids, s.Name, s.ID); err != nil {
				return err
			}
			bounded[s.Name] = s.Bounds != nil
		}
	}

	groups := make(map[string]bool)
	for i := range c.Groups {
		g := &c.Groups[i]
		if g.Name == "" {
			return errors.New("group name is required")
		}
		if groups[g.Name] {
			return fmt.Errorf("duplicate group %q", g.Name)
		}
		groups[g.Name] = true
		if err := validateGroup(g, kinds, bounded); err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}
	}

	for _, name := range c.Test {
		if !groups[name] {
			return fmt.Errorf("test: unknown group %q", name)
		}
	}
	return nil
}

func addActuator(kinds map[string]Kind, name string, kind Kind) error {
	if name == "" {
		return fmt.Errorf("%s name is required", kind)
	}
	if _, ok := kinds[name]; ok {
		return fmt.Errorf("duplicate actuator %q", name)
	}
	kinds[name] = kind
	return nil
}

// claimID rejects two actuators on one bus ID. Zero means no ID.
func claimID(ids map[int]string, name string, id int) error {
	if id == 0 {
		return nil
	}
	if id < 0 {
		return fmt.Errorf("%s: negative bus id %d", name, id)
	}
	if other, ok := ids[id]; ok {
		return fmt.Errorf("duplicate bus id %d on %q and %q", id, other, name)
	}
	ids[id] = name
	return nil
}

func validateGroup(g *Group, kinds map[string]Kind, bounded map[string]bool) error {
	if n := len(g.Actuators); n != 1 && n != 2 {
		return fmt.Errorf("needs one or two actuators, got %d", n)
	}
	g.Kind = ""
	for _, name := range g.Actuators {
		kind, ok := kinds[name]
		if !ok {
			return fmt.Errorf("unknown actuator %q", name)
		}
		if g.Kind != "" && g.Kind != kind {
			return fmt.Errorf("mixes servos and motors")
		}
		if !bounded[name] {
			return fmt.Errorf("actuator %q has no bounds", name)
		}
		g.Kind = kind
	}
	if g.Paired() && g.Actuators[0] == g.Actuators[1] {
		return fmt.Errorf("pairs %q with itself", g.Actuators[0])
	}

	switch g.Mirror {
	case MirrorNone:
	case MirrorNegate:
		if g.Kind != KindMotor {
			return errors.New("negate mirror only applies to motors")
		}
	case MirrorComplement:
		if g.Kind != KindServo {
			return errors.New("complement mirror only applies to servos")
		}
	default:
		return fmt.Errorf("unknown mirror %q", g.Mirror)
	}
	if g.Mirror != MirrorNone && !g.Paired() {
		return errors.New("mirror needs two actuators")
	}

	if g.Kind == KindMotor && (g.Power <= 0 || g.Power > 1) {
		return fmt.Errorf("power must be in (0, 1], got %g", g.Power)
	}
	return nil
}

// Registry builds a bounds registry from every bounded actuator.
func (c *Config) Registry() (*Registry, error) {
	r := NewRegistry()
	for _, hub := range c.Hubs {
		for _, m := range hub.Motors {
			if m.Bounds == nil {
				continue
			}
			if err := r.RegisterMotor(m.Name, *m.Bounds); err != nil {
				return nil, err
			}
		}
		for _, s := range hub.Servos {
			if s.Bounds == nil {
				continue
			}
			if err := r.RegisterServo(s.Name, *s.Bounds); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Group returns a group by name.
func (c *Config) Group(name string) (Group, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// TestedGroups returns the groups listed under test, in order.
func (c *Config) TestedGroups() ([]Group, error) {
	groups := make([]Group, 0, len(c.Test))
	for _, name := range c.Test {
		g, ok := c.Group(name)
		if !ok {
			return nil, fmt.Errorf("test: unknown group %q", name)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// BoundedMotors returns the names of motors that have bounds, in hub order.
func (c *Config) BoundedMotors() []string {
	var names []string
	for _, hub := range c.Hubs {
		for _, m := range hub.Motors {
			if m.Bounds != nil {
				names = append(names, m.Name)
			}
		}
	}
	return names
}

// ServoIDs maps servo names to bus IDs for servos that have one.
func (c *Config) ServoIDs() map[string]int {
	ids := make(map[string]int)
	for _, hub := range c.Hubs {
		for _, s := range hub.Servos {
			if s.ID > 0 {
				ids[s.Name] = s.ID
			}
		}
	}
	return ids
}

// MotorIDs maps motor names to bus IDs for motors that have one.
func (c *Config) MotorIDs() map[string]int {
	ids := make(map[string]int)
	for _, hub := range c.Hubs {
		for _, m := range hub.Motors {
			if m.ID > 0 {
				ids[m.Name] = m.ID
			}
		}
	}
	return ids
}

// MoveTime returns the servo travel time.
func (c *Config) MoveTime() time.Duration {
	return time.Duration(c.Hardware.MoveTimeMs) * time.Millisecond
}
