// Package hal abstracts the controller's field wiring: the blowdown valve
// relay, the chemical pump stepper drives and the water-meter pulse inputs.
// Every device has a file-backed implementation (sysfs-style control files),
// a cmd-backed one (external helper binaries) and a fake for tests and
// bench simulation.
package hal

import (
	"fmt"

	"github.com/boilerctl/boilerctl/internal/configuration"
)

const cmdTimeout = 2 // seconds

// Valve is a binary relay output. Commands are fire-and-forget, actuator
// travel time is handled by the caller.
type Valve interface {
	GetId() string
	Open() error
	Close() error
}

// PumpDrive is a stepper-driven metering pump head.
type PumpDrive interface {
	GetId() string
	// Start runs the drive at the given rate in steps per second.
	Start(stepRate float64) error
	Stop() error
	// Steps returns the monotonic lifetime step counter of the drive.
	Steps() (uint64, error)
}

// PulseCounter is a monotonic pulse accumulator, fed by a water-meter
// contactor or paddlewheel pickup.
type PulseCounter interface {
	GetId() string
	Count() (uint64, error)
}

func NewValve(config configuration.ValveConfig) (Valve, error) {
	if config.File != nil {
		return &FileValve{Config: config}, nil
	}
	if config.Cmd != nil {
		return &CmdValve{Config: config}, nil
	}
	if config.Fake != nil {
		return &FakeValve{}, nil
	}
	return nil, fmt.Errorf("no valve implementation configured")
}

func NewPumpDrive(id string, config configuration.PumpDriveConfig) (PumpDrive, error) {
	if config.File != nil {
		return &FilePumpDrive{ID: id, Config: config}, nil
	}
	if config.Cmd != nil {
		return &CmdPumpDrive{ID: id, Config: config}, nil
	}
	if config.Fake != nil {
		return NewFakePumpDrive(id), nil
	}
	return nil, fmt.Errorf("pump %s: no drive implementation configured", id)
}

func NewPulseCounter(id string, config configuration.CounterConfig) (PulseCounter, error) {
	if config.File != nil {
		return &FilePulseCounter{ID: id, Config: config}, nil
	}
	if config.Cmd != nil {
		return &CmdPulseCounter{ID: id, Config: config}, nil
	}
	if config.Fake != nil {
		return &FakePulseCounter{ID: id}, nil
	}
	return nil, fmt.Errorf("meter %s: no counter implementation configured", id)
}
