package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/portstest/pkg/hw"
	"github.com/gwillem/portstest/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const simChoice = "sim"

type SetupCommand struct {
	BaudRate int `long:"baud" default:"1000000" description:"Servo bus baud rate"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("portstest setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	// Start from the existing file so bounds edited by hand survive
	cfg := robot.DefaultConfig()
	if _, err := os.Stat(opts.Config); err == nil {
		loaded, err := robot.LoadConfigFrom(opts.Config)
		if err != nil {
			return err
		}
		cfg = loaded
		fmt.Printf("Updating %s\n\n", opts.Config)
	}

	// Step 1: find the bus
	fmt.Println(subHeaderStyle.Render("━━━ Servo bus ━━━"))
	fmt.Println()
	buses := c.findBuses(cfg)

	port, err := chooseBus(buses)
	if err != nil {
		return err
	}
	if port == simChoice {
		cfg.Hardware.Backend = robot.BackendSim
		cfg.Hardware.Port = ""
	} else {
		cfg.Hardware.Backend = robot.BackendFeetech
		cfg.Hardware.Port = port
		cfg.Hardware.BaudRate = c.BaudRate
	}

	// Step 2: pick the groups the triggers drive
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Groups ━━━"))
	fmt.Println()
	if err := chooseGroups(cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start a session with: " + headerStyle.Render("portstest run"))
	return nil
}

type busInfo struct {
	port   string
	servos []feetech.FoundServo
}

// findBuses probes every serial port for servos in the configured ID range.
func (c *SetupCommand) findBuses(cfg *robot.Config) []busInfo {
	lo, hi := configuredIDs(cfg)
	if hi == 0 {
		fmt.Println("No bus IDs configured, skipping scan.")
		return nil
	}

	fmt.Printf("Scanning serial ports for servo IDs %d-%d...\n", lo, hi)
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var buses []busInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		servos, err := c.scan(port, lo, hi)
		if err != nil || len(servos) == 0 {
			continue
		}
		fmt.Printf("  Found %d servo(s) on %s\n", len(servos), port)
		buses = append(buses, busInfo{port: port, servos: servos})
	}
	return buses
}

func (c *SetupCommand) scan(port string, lo, hi int) ([]feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: c.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	defer bus.Close()

	return bus.Scan(ctx, lo, hi)
}

func configuredIDs(cfg *robot.Config) (lo, hi int) {
	return hw.IDRange(cfg.ServoIDs(), cfg.MotorIDs())
}

func chooseBus(buses []busInfo) (string, error) {
	var options []huh.Option[string]
	for _, b := range buses {
		label := fmt.Sprintf("%s (%d servo(s))", b.port, len(b.servos))
		options = append(options, huh.NewOption(label, b.port))
	}
	options = append(options, huh.NewOption("Simulated hardware", simChoice))

	choice := simChoice
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which hardware should the session drive?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func chooseGroups(cfg *robot.Config) error {
	options := make([]huh.Option[string], 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		label := fmt.Sprintf("%s (%s)", g.Name, strings.Join(g.Actuators, ", "))
		options = append(options, huh.NewOption(label, g.Name))
	}

	selected := append([]string(nil), cfg.Test...)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which groups should the triggers drive?").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Test = selected
	return nil
}
