package main

import (
	"fmt"
	"os"

	"github.com/gwillem/portstest/pkg/robot"
)

type InitCommand struct {
	Force bool `short:"f" long:"force" description:"Overwrite an existing configuration"`
}

func (c *InitCommand) Execute(args []string) error {
	if _, err := os.Stat(opts.Config); err == nil && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", opts.Config)
	}

	cfg := robot.DefaultConfig()
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Stock configuration written to %s\n", opts.Config)
	fmt.Println("Start a simulated session with: " + headerStyle.Render("portstest run"))
	return nil
}
