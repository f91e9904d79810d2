package robot

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/gwillem/portstest/pkg/debug"
	"github.com/gwillem/portstest/pkg/hw"
)

// Kind is the capability set shared by the actuators of a group.
type Kind string

const (
	KindServo Kind = "servo"
	KindMotor Kind = "motor"
)

// Mirror relates the second actuator of a pair to the first.
type Mirror string

const (
	MirrorNone       Mirror = ""
	MirrorComplement Mirror = "complement" // 1 - x
	MirrorNegate     Mirror = "negate"     // -x
)

// Servo applies the relation to a servo position.
func (m Mirror) Servo(x float64) float64 {
	switch m {
	case MirrorComplement:
		return 1.0 - x
	case MirrorNegate:
		return -x
	default:
		return x
	}
}

// Motor applies the relation to a motor target.
func (m Mirror) Motor(x int32) int32 {
	switch m {
	case MirrorComplement:
		return 1 - x
	case MirrorNegate:
		return -x
	default:
		return x
	}
}

// Group is one command target: a single actuator or a mirrored pair driven
// by the same normalized command.
type Group struct {
	Name      string   `yaml:"name"`
	Actuators []string `yaml:"actuators"`
	Mirror    Mirror   `yaml:"mirror,omitempty"`
	Power     float64  `yaml:"power,omitempty"` // motors only
	Kind      Kind     `yaml:"-"`               // derived from the actuators on load
}

// Paired reports whether the group drives two actuators.
func (g Group) Paired() bool {
	return len(g.Actuators) == 2
}

// Target is one value sent to one actuator.
type Target struct {
	Actuator string
	Value    float64
}

// Command records what Apply sent.
type Command struct {
	Group   string
	Norm    float64
	Targets []Target
}

// Commander scales normalized commands and dispatches them to the
// actuators of a group.
type Commander struct {
	bounds *Registry
	servos map[string]hw.Servo
	motors map[string]*Motor
}

// NewCommander creates a commander over resolved actuator handles.
func NewCommander(bounds *Registry, servos map[string]hw.Servo, motors map[string]*Motor) *Commander {
	return &Commander{
		bounds: bounds,
		servos: servos,
		motors: motors,
	}
}

// Apply scales norm with each actuator's own bounds, applies the group's
// mirror relation to the second actuator and dispatches first, then second.
//
// Both actuators are always commanded, and a pair is not atomic: when one
// write fails the other stays applied. The returned error combines both
// failures.
func (c *Commander) Apply(ctx context.Context, g Group, norm float64) (Command, error) {
	switch g.Kind {
	case KindServo:
		return c.applyServos(ctx, g, norm)
	case KindMotor:
		return c.applyMotors(ctx, g, norm)
	default:
		return Command{}, fmt.Errorf("group %s: unknown kind %q", g.Name, g.Kind)
	}
}

func (c *Commander) applyServos(ctx context.Context, g Group, norm float64) (Command, error) {
	cmd := Command{Group: g.Name, Norm: norm}
	handles := make([]hw.Servo, 0, len(g.Actuators))
	for i, name := range g.Actuators {
		b, err := c.bounds.Servo(name)
		if err != nil {
			return Command{}, fmt.Errorf("group %s: %w", g.Name, err)
		}
		h, ok := c.servos[name]
		if !ok {
			return Command{}, fmt.Errorf("group %s: servo %q: %w", g.Name, name, hw.ErrActuatorNotFound)
		}
		v := b.Scale(norm)
		if i == 1 {
			v = g.Mirror.Servo(v)
		}
		handles = append(handles, h)
		cmd.Targets = append(cmd.Targets, Target{Actuator: name, Value: v})
	}

	var errs error
	for i, h := range handles {
		t := cmd.Targets[i]
		debug.Live("servo %s -> %.3f", t.Actuator, t.Value)
		errs = multierr.Append(errs, h.SetPosition(ctx, t.Value))
	}
	if errs != nil {
		return cmd, fmt.Errorf("group %s: %w", g.Name, errs)
	}
	return cmd, nil
}

func (c *Commander) applyMotors(ctx context.Context, g Group, norm float64) (Command, error) {
	cmd := Command{Group: g.Name, Norm: norm}
	motors := make([]*Motor, 0, len(g.Actuators))
	ticks := make([]int32, 0, len(g.Actuators))
	for i, name := range g.Actuators {
		b, err := c.bounds.Motor(name)
		if err != nil {
			return Command{}, fmt.Errorf("group %s: %w", g.Name, err)
		}
		m, ok := c.motors[name]
		if !ok {
			return Command{}, fmt.Errorf("group %s: motor %q: %w", g.Name, name, hw.ErrActuatorNotFound)
		}
		v := b.Scale(norm)
		if i == 1 {
			v = g.Mirror.Motor(v)
		}
		motors = append(motors, m)
		ticks = append(ticks, v)
		cmd.Targets = append(cmd.Targets, Target{Actuator: name, Value: float64(v)})
	}

	var errs error
	for i, m := range motors {
		debug.Live("motor %s -> %d @ %.2f", m.Name(), ticks[i], g.Power)
		errs = multierr.Append(errs, m.RunToPosition(ctx, ticks[i], g.Power))
	}
	if errs != nil {
		return cmd, fmt.Errorf("group %s: %w", g.Name, errs)
	}
	return cmd, nil
}
