// Package portstest drives a robot's actuators between their calibrated
// bounds so each wiring port can be checked by hand.
//
// Each actuator is driven from two triggers: low sends it to its lower bound
// and high to its upper bound. Paired actuators, such as a claw or a
// two-motor slide, follow the first actuator mirrored.
//
// # Installation
//
//	go install github.com/gwillem/portstest/cmd/portstest@latest
//
// # Usage
//
// Write the stock robot configuration, or scan for a servo bus:
//
//	portstest init
//	portstest setup
//
// Then start a session:
//
//	portstest run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/portstest: CLI with init, setup and run commands
//   - pkg/robot: bounds, motor run modes, group commands and configuration
//   - pkg/teleop: the port test session
//   - pkg/hw: actuator interfaces with simulated and Feetech backends
//   - pkg/input: keyboard and GPIO button triggers
//   - pkg/telemetry: captioned status lines, frame buffer and SSE stream
//   - pkg/debug: leveled logging
package portstest
