package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/gwillem/portstest/pkg/debug"
	"github.com/gwillem/portstest/pkg/hw/gpio"
	"github.com/gwillem/portstest/pkg/input"
	"github.com/gwillem/portstest/pkg/robot"
	"github.com/gwillem/portstest/pkg/telemetry"
	"github.com/gwillem/portstest/pkg/teleop"
)

type RunCommand struct {
	Hz       int    `long:"hz" description:"Control loop frequency (overrides config)"`
	Sim      bool   `long:"sim" description:"Use simulated hardware regardless of config"`
	Web      int    `long:"web" description:"Serve the telemetry stream on this port (overrides config)"`
	Headless bool   `long:"headless" description:"Start immediately without the terminal UI; stop with Ctrl+C"`
	LogFile  string `long:"log-file" default:"portstest.log" description:"Debug log destination while the terminal UI is up"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "No configuration found. Run 'portstest init' or 'portstest setup' first.")
			os.Exit(1)
		}
		return err
	}
	if c.Hz > 0 {
		cfg.Defaults.Hz = c.Hz
	}
	if c.Web > 0 {
		cfg.Defaults.WebPort = c.Web
	}
	if c.Sim {
		cfg.Hardware.Backend = robot.BackendSim
	}

	debug.Init(cfg.Defaults.DebugLevel)
	fmt.Printf("Loaded configuration from %s\n", opts.Config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hardware, err := robot.OpenHardware(ctx, cfg)
	if err != nil {
		return err
	}
	defer hardware.Close()

	keys := input.NewKeyboard()
	sources := []input.Source{keys}
	if cfg.Buttons != nil {
		drv, err := gpio.NewDriver(cfg.Buttons.Mock)
		if err != nil {
			return fmt.Errorf("open gpio: %w", err)
		}
		buttons, err := input.NewButtons(drv, cfg.Buttons.LowPin, cfg.Buttons.HighPin)
		if err != nil {
			drv.Close()
			return err
		}
		defer buttons.Close()
		sources = append(sources, buttons)
	}

	session := uuid.NewString()
	frames := telemetry.NewBuffer()
	sinks := []telemetry.Sink{frames}
	if c.Headless {
		sinks = append(sinks, telemetry.LogSink{})
	}
	if port := cfg.Defaults.WebPort; port > 0 {
		bc := telemetry.NewBroadcaster(session)
		sinks = append(sinks, bc)
		srv := telemetry.NewServer(fmt.Sprintf(":%d", port), bc)
		go func() {
			if err := srv.Run(ctx); err != nil {
				debug.Error(err)
			}
		}()
		fmt.Printf("Telemetry stream on http://localhost:%d/telemetry/stream\n", port)
	}

	gate := teleop.NewSwitch()
	ctrl, err := teleop.NewController(teleop.Config{
		Robot:     cfg,
		Hardware:  hardware,
		Input:     input.Merge(sources...),
		Sink:      telemetry.Multi(sinks...),
		Gate:      gate,
		SessionID: session,
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	if c.Headless {
		if cfg.Buttons == nil {
			fmt.Fprintln(os.Stderr, "No trigger buttons configured; groups stay idle.")
		}
		gate.Start()
		err := ctrl.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	// Keep debug output off the alternate screen
	if debug.IsEnabled(debug.LevelInfo) {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		debug.SetOutput(f)
		defer debug.SetOutput(os.Stderr)
	}

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Run(ctx)
	}()

	p := tea.NewProgram(newRunModel(ctrl, cfg, gate, keys, frames, done), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}

	if m, ok := final.(runModel); ok && m.err != nil && !errors.Is(m.err, context.Canceled) {
		return m.err
	}
	return nil
}
