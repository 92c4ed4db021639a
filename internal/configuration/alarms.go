package configuration

type AlarmConfig struct {
	// UsePercent interprets CondHigh/CondLow as percent of the blowdown
	// setpoint instead of absolute µS/cm.
	UsePercent bool    `json:"usePercent"`
	CondHigh   float64 `json:"condHigh"`
	CondLow    float64 `json:"condLow"`

	NoFlow          bool `json:"noFlow"`
	SensorError     bool `json:"sensorError"`
	BlowdownTimeout bool `json:"blowdownTimeout"`
	PumpLockout     bool `json:"pumpLockout"`
}
