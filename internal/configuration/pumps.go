package configuration

import "time"

type PumpConfig struct {
	ID      string   `json:"id"`
	Enabled bool     `json:"enabled"`
	Mode    FeedMode `json:"mode"`
	// HOA is the hand-off-auto mode the pump starts in.
	HOA HOAMode `json:"hoa"`

	Drive PumpDriveConfig `json:"drive"`

	// StepsPerMl converts drive steps into dosed volume. Required for volume
	// accounting and the calibrate operation.
	StepsPerMl float64 `json:"stepsPerMl"`
	// StepRate is the drive speed in steps per second while the pump runs.
	StepRate float64 `json:"stepRate"`

	// TimeLimit caps accumulated feed time (modes that bank time) and total
	// continuous runtime before the pump locks out. 0 disables the limit.
	TimeLimit time.Duration `json:"timeLimit"`
	// LockoutDuration is how long a pump stays locked out after exceeding
	// its time limit.
	LockoutDuration time.Duration `json:"lockoutDuration"`

	// PrimeDuration is the fixed run length of the prime operation.
	PrimeDuration time.Duration `json:"primeDuration"`
	// CalibrationVolume is the target volume in ml dispensed by a calibration run.
	CalibrationVolume float64 `json:"calibrationVolume"`

	BlowdownFollow    *BlowdownFollowConfig    `json:"blowdownFollow,omitempty"`
	PercentOfBlowdown *PercentOfBlowdownConfig `json:"percentOfBlowdown,omitempty"`
	PercentOfTime     *PercentOfTimeConfig     `json:"percentOfTime,omitempty"`
	WaterContact      *WaterContactConfig      `json:"waterContact,omitempty"`
	Paddlewheel       *PaddlewheelConfig       `json:"paddlewheel,omitempty"`
	Schedule          *ScheduleConfig          `json:"schedule,omitempty"`
	Fuzzy             *FuzzyDrivenConfig       `json:"fuzzy,omitempty"`
}

// BlowdownFollowConfig runs the pump whenever the blowdown valve is open.
type BlowdownFollowConfig struct {
	// MaxRunTime caps a single follow run. 0 follows the valve indefinitely.
	MaxRunTime time.Duration `json:"maxRunTime"`
}

// PercentOfBlowdownConfig banks blowdown time and feeds a percentage of it
// once the blowdown ends.
type PercentOfBlowdownConfig struct {
	Percent int `json:"percent"`
	// MaxTime caps a single feed run computed from the banked time.
	MaxTime time.Duration `json:"maxTime"`
}

// PercentOfTimeConfig runs the pump for a fixed fraction of every cycle.
type PercentOfTimeConfig struct {
	// Percent is given in 0.1 % units, i.e. 200 means 20 %.
	Percent   int           `json:"percent"`
	CycleTime time.Duration `json:"cycleTime"`
}

// WaterContactConfig banks feed time per water-meter contact.
type WaterContactConfig struct {
	Meter string `json:"meter"`
	// ContactDivider is how many contacts bank one feed increment.
	ContactDivider int `json:"contactDivider"`
	// TimePerContact is the feed time banked per divided contact.
	TimePerContact time.Duration `json:"timePerContact"`
}

// PaddlewheelConfig banks feed time per metered volume.
type PaddlewheelConfig struct {
	Meter string `json:"meter"`
	// VolumeToInitiate is the metered volume that banks one feed increment.
	VolumeToInitiate float64 `json:"volumeToInitiate"`
	// TimePerVolume is the feed time banked per volume increment.
	TimePerVolume time.Duration `json:"timePerVolume"`
}

// ScheduleConfig feeds for a fixed duration on a cron schedule.
type ScheduleConfig struct {
	// Cron is a standard 5-field cron spec, e.g. "0 6 * * *".
	Cron         string        `json:"cron"`
	FeedDuration time.Duration `json:"feedDuration"`
	// Lockout suppresses further scheduled feeds for this long after a feed.
	Lockout time.Duration `json:"lockout"`
}

// FuzzyDrivenConfig converts the advisory dosing rate for one chemical output
// into a duty cycle over the dose cycle.
type FuzzyDrivenConfig struct {
	// Output selects the advisory output driving this pump: caustic | sulfite | acid.
	Output string `json:"output"`
	// MaxRate is the dosing rate in ml/min that corresponds to a 100 %
	// recommendation.
	MaxRate float64 `json:"maxRate"`
	// CycleTime is the duty-cycle period.
	CycleTime time.Duration `json:"cycleTime"`
}

type PumpDriveConfig struct {
	File *FilePumpDriveConfig `json:"file,omitempty"`
	Cmd  *CmdPumpDriveConfig  `json:"cmd,omitempty"`
	Fake *FakePumpDriveConfig `json:"fake,omitempty"`
}

type FilePumpDriveConfig struct {
	// EnablePath is written "1"/"0" to start and stop the drive.
	EnablePath string `json:"enablePath"`
	// RatePath is written the step rate before the drive is enabled.
	RatePath string `json:"ratePath"`
	// CounterPath reads the monotonic step counter.
	CounterPath string `json:"counterPath"`
}

type CmdPumpDriveConfig struct {
	Start ExecConfig `json:"start"`
	Stop  ExecConfig `json:"stop"`
	// Steps prints the monotonic step counter on stdout.
	Steps ExecConfig `json:"steps"`
}

type FakePumpDriveConfig struct{}
