package robot

import (
	"context"
	"fmt"

	"github.com/gwillem/portstest/pkg/hw"
)

// OpenHardware opens the backend selected in the config. The simulated
// backend wires every actuator the config declares.
func OpenHardware(ctx context.Context, cfg *Config) (hw.Map, error) {
	switch cfg.Hardware.Backend {
	case BackendSim, "":
		return NewSimFor(cfg), nil
	case BackendFeetech:
		f, err := hw.OpenFeetech(ctx, hw.FeetechConfig{
			Port:     cfg.Hardware.Port,
			BaudRate: cfg.Hardware.BaudRate,
			MoveTime: cfg.MoveTime(),
		}, cfg.ServoIDs(), cfg.MotorIDs())
		if err != nil {
			return nil, fmt.Errorf("open feetech hardware: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported hardware backend: %s", cfg.Hardware.Backend)
	}
}

// NewSimFor returns simulated hardware with every actuator of cfg wired.
func NewSimFor(cfg *Config) *hw.Sim {
	sim := hw.NewSim()
	for _, hub := range cfg.Hubs {
		for _, m := range hub.Motors {
			sim.AddMotor(m.Name)
		}
		for _, s := range hub.Servos {
			sim.AddServo(s.Name)
		}
	}
	return sim
}
