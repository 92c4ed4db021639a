package sensors

import (
	"sync"

	"github.com/boilerctl/boilerctl/internal/configuration"
)

// FakeSensor returns a settable fixed value, for tests and bench simulation.
type FakeSensor struct {
	Config    configuration.SensorConfig `json:"configuration"`
	MovingAvg float64                    `json:"movingAvg"`

	mu    sync.Mutex
	Value float64
	Err   error
}

func (sensor *FakeSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *FakeSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *FakeSensor) GetValue() (float64, error) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	return sensor.Value, sensor.Err
}

func (sensor *FakeSensor) SetValue(value float64) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.Value = value
}

func (sensor *FakeSensor) SetError(err error) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.Err = err
}

func (sensor *FakeSensor) GetMovingAvg() (avg float64) {
	return sensor.MovingAvg
}

func (sensor *FakeSensor) SetMovingAvg(avg float64) {
	sensor.MovingAvg = avg
}
