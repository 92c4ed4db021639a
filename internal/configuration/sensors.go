package configuration

type SensorsConfig struct {
	Conductivity SensorConfig `json:"conductivity"`
	Temperature  SensorConfig `json:"temperature"`
	Flow         SensorConfig `json:"flow"`

	// AntiFlashFactor dampens conductivity spikes caused by flashing in the
	// sample chamber. 0 disables dampening, valid range is 1-10.
	AntiFlashFactor int `json:"antiFlashFactor"`
}

type SensorConfig struct {
	ID   string            `json:"id"`
	File *FileSensorConfig `json:"file,omitempty"`
	Cmd  *CmdSensorConfig  `json:"cmd,omitempty"`
	Fake *FakeSensorConfig `json:"fake,omitempty"`
}

type FileSensorConfig struct {
	Path string `json:"path"`
}

type CmdSensorConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args"`
}

type FakeSensorConfig struct {
	Value float64 `json:"value"`
}

type ValveConfig struct {
	File *FileValveConfig `json:"file,omitempty"`
	Cmd  *CmdValveConfig  `json:"cmd,omitempty"`
	Fake *FakeValveConfig `json:"fake,omitempty"`
}

type FileValveConfig struct {
	// Path is written "1" to open and "0" to close the valve relay.
	Path string `json:"path"`
}

type CmdValveConfig struct {
	Open  ExecConfig `json:"open"`
	Close ExecConfig `json:"close"`
}

type FakeValveConfig struct{}

type ExecConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args"`
}
