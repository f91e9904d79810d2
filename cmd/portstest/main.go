package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/portstest/pkg/robot"
)

type Options struct {
	Config string `short:"c" long:"config" description:"Robot configuration file"`

	Run   RunCommand   `command:"run" alias:"test" description:"Run a port test session on the configured groups"`
	Setup SetupCommand `command:"setup" description:"Find the servo bus and choose the groups to test"`
	Init  InitCommand  `command:"init" description:"Write the stock robot configuration"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "portstest - drive robot actuators between their calibrated bounds"

	opts.Config = robot.DefaultConfigFile

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
