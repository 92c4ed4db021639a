package configuration

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
)

type HOAMode string

const (
	HOAOff  HOAMode = "off"
	HOAHand HOAMode = "hand"
	HOAAuto HOAMode = "auto"
)

type ControlDirection string

const (
	// DirectionHigh opens the valve when the value rises above the setpoint.
	DirectionHigh ControlDirection = "high"
	// DirectionLow opens the valve when the value falls below the setpoint.
	DirectionLow ControlDirection = "low"
)

type SampleMode string

const (
	SampleModeContinuous   SampleMode = "continuous"
	SampleModeIntermittent SampleMode = "intermittent"
	SampleModeTimed        SampleMode = "timed"
	SampleModeProportional SampleMode = "proportional"
)

type FeedMode string

const (
	FeedModeBlowdownFollow    FeedMode = "blowdownFollow"
	FeedModePercentOfBlowdown FeedMode = "percentOfBlowdown"
	FeedModePercentOfTime     FeedMode = "percentOfTime"
	FeedModeWaterContact      FeedMode = "waterContact"
	FeedModePaddlewheel       FeedMode = "paddlewheel"
	FeedModeScheduled         FeedMode = "scheduled"
	FeedModeFuzzy             FeedMode = "fuzzy"
)

type MeterType string

const (
	MeterTypeContactor   MeterType = "contactor"
	MeterTypePaddlewheel MeterType = "paddlewheel"
)

// legacy numeric values used by existing controller configurations
var (
	hoaModeByIndex = map[int]HOAMode{
		0: HOAOff,
		1: HOAHand,
		2: HOAAuto,
	}
	sampleModeByIndex = map[int]SampleMode{
		0: SampleModeContinuous,
		1: SampleModeIntermittent,
		2: SampleModeTimed,
		3: SampleModeProportional,
	}
	feedModeByIndex = map[int]FeedMode{
		0: FeedModeBlowdownFollow,
		1: FeedModePercentOfBlowdown,
		2: FeedModePercentOfTime,
		3: FeedModeWaterContact,
		4: FeedModePaddlewheel,
		5: FeedModeScheduled,
		6: FeedModeFuzzy,
	}
)

// modeValueHookFunc returns a mapstructure decode hook that allows the
// enum-like configuration values (HOA, sample mode, feed mode) to be given
// either as strings or as the numeric indices older configurations used.
func modeValueHookFunc() mapstructure.DecodeHookFuncType {
	hoaType := reflect.TypeOf(HOAMode(""))
	sampleType := reflect.TypeOf(SampleMode(""))
	feedType := reflect.TypeOf(FeedMode(""))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		switch t {
		case hoaType:
			switch v := data.(type) {
			case int:
				if m, ok := hoaModeByIndex[v]; ok {
					return m, nil
				}
			case string:
				return HOAMode(v), nil
			}
		case sampleType:
			switch v := data.(type) {
			case int:
				if m, ok := sampleModeByIndex[v]; ok {
					return m, nil
				}
			case string:
				return SampleMode(v), nil
			}
		case feedType:
			switch v := data.(type) {
			case int:
				if m, ok := feedModeByIndex[v]; ok {
					return m, nil
				}
			case string:
				return FeedMode(v), nil
			}
		}

		return data, nil
	}
}
