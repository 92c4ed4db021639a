package configuration

import "time"

type BlowdownConfig struct {
	// Setpoint is the target conductivity in µS/cm.
	Setpoint float64 `json:"setpoint"`
	// Deadband is the hysteresis width below (direction high) or above
	// (direction low) the setpoint.
	Deadband float64 `json:"deadband"`
	// Direction selects whether rising or falling conductivity opens the valve.
	Direction ControlDirection `json:"direction"`
	// TimeLimit aborts a blowdown that runs longer than this and latches the
	// timeout state. 0 disables the limit.
	TimeLimit time.Duration `json:"timeLimit"`
	// BallValveDelay is the actuator travel time between the open/close command
	// and the valve actually reaching its position.
	BallValveDelay time.Duration `json:"ballValveDelay"`
	// HOA is the hand-off-auto mode the valve starts in.
	HOA HOAMode `json:"hoa"`
}

type SamplingConfig struct {
	Mode SampleMode `json:"mode"`

	// Interval between sample cycles (intermittent and timed modes).
	Interval time.Duration `json:"interval"`
	// Duration the valve stays open to draw a fresh sample.
	Duration time.Duration `json:"duration"`
	// HoldTime the sample is held with the valve closed before the
	// conductivity reading is trusted.
	HoldTime time.Duration `json:"holdTime"`
	// BlowTime is the fixed blowdown length of the timed mode.
	BlowTime time.Duration `json:"blowTime"`

	// PropBand is the conductivity span above the setpoint that maps to the
	// full proportional blowdown time.
	PropBand float64 `json:"propBand"`
	// MaxPropTime is the blowdown length at or beyond the full proportional band.
	MaxPropTime time.Duration `json:"maxPropTime"`
}
