package configuration

type MeterConfig struct {
	ID   string    `json:"id"`
	Type MeterType `json:"type"`

	// VolumePerContact is the volume in liters represented by one contactor
	// closure (contactor meters).
	VolumePerContact float64 `json:"volumePerContact"`
	// KFactor is pulses per liter (paddlewheel meters).
	KFactor float64 `json:"kFactor"`

	Counter CounterConfig `json:"counter"`
}

type CounterConfig struct {
	File *FileCounterConfig `json:"file,omitempty"`
	Cmd  *CmdCounterConfig  `json:"cmd,omitempty"`
	Fake *FakeCounterConfig `json:"fake,omitempty"`
}

type FileCounterConfig struct {
	// Path reads the monotonic pulse counter.
	Path string `json:"path"`
}

type CmdCounterConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args"`
}

type FakeCounterConfig struct{}
