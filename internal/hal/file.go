package hal

import (
	"fmt"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/util"
)

type FileValve struct {
	Config configuration.ValveConfig
}

func (valve *FileValve) GetId() string {
	return "valve"
}

func (valve *FileValve) Open() error {
	return util.WriteIntToFile(1, valve.Config.File.Path)
}

func (valve *FileValve) Close() error {
	return util.WriteIntToFile(0, valve.Config.File.Path)
}

type FilePumpDrive struct {
	ID     string
	Config configuration.PumpDriveConfig
}

func (drive *FilePumpDrive) GetId() string {
	return drive.ID
}

func (drive *FilePumpDrive) Start(stepRate float64) error {
	fileConfig := drive.Config.File
	if len(fileConfig.RatePath) > 0 {
		// the rate must be latched before the drive is enabled
		err := util.WriteIntToFile(int(stepRate), fileConfig.RatePath)
		if err != nil {
			return fmt.Errorf("pump %s: %s", drive.ID, err)
		}
	}
	return util.WriteIntToFile(1, fileConfig.EnablePath)
}

func (drive *FilePumpDrive) Stop() error {
	return util.WriteIntToFile(0, drive.Config.File.EnablePath)
}

func (drive *FilePumpDrive) Steps() (uint64, error) {
	return util.ReadUintFromFile(drive.Config.File.CounterPath)
}

type FilePulseCounter struct {
	ID     string
	Config configuration.CounterConfig
}

func (counter *FilePulseCounter) GetId() string {
	return counter.ID
}

func (counter *FilePulseCounter) Count() (uint64, error) {
	return util.ReadUintFromFile(counter.Config.File.Path)
}
