package hal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/util"
)

type CmdValve struct {
	Config configuration.ValveConfig
}

func (valve *CmdValve) GetId() string {
	return "valve"
}

func (valve *CmdValve) Open() error {
	open := valve.Config.Cmd.Open
	_, err := util.SafeCmdExecution(open.Exec, open.Args, cmdTimeout*time.Second)
	return err
}

func (valve *CmdValve) Close() error {
	closeCmd := valve.Config.Cmd.Close
	_, err := util.SafeCmdExecution(closeCmd.Exec, closeCmd.Args, cmdTimeout*time.Second)
	return err
}

type CmdPumpDrive struct {
	ID     string
	Config configuration.PumpDriveConfig
}

func (drive *CmdPumpDrive) GetId() string {
	return drive.ID
}

func (drive *CmdPumpDrive) Start(stepRate float64) error {
	start := drive.Config.Cmd.Start
	args := append([]string{}, start.Args...)
	args = append(args, strconv.Itoa(int(stepRate)))
	_, err := util.SafeCmdExecution(start.Exec, args, cmdTimeout*time.Second)
	return err
}

func (drive *CmdPumpDrive) Stop() error {
	stop := drive.Config.Cmd.Stop
	_, err := util.SafeCmdExecution(stop.Exec, stop.Args, cmdTimeout*time.Second)
	return err
}

func (drive *CmdPumpDrive) Steps() (uint64, error) {
	steps := drive.Config.Cmd.Steps
	result, err := util.SafeCmdExecution(steps.Exec, steps.Args, cmdTimeout*time.Second)
	if err != nil {
		return 0, fmt.Errorf("pump %s: %s", drive.ID, err)
	}
	return strconv.ParseUint(result, 10, 64)
}

type CmdPulseCounter struct {
	ID     string
	Config configuration.CounterConfig
}

func (counter *CmdPulseCounter) GetId() string {
	return counter.ID
}

func (counter *CmdPulseCounter) Count() (uint64, error) {
	cmdConfig := counter.Config.Cmd
	result, err := util.SafeCmdExecution(cmdConfig.Exec, cmdConfig.Args, cmdTimeout*time.Second)
	if err != nil {
		return 0, fmt.Errorf("meter %s: %s", counter.ID, err)
	}
	return strconv.ParseUint(result, 10, 64)
}
