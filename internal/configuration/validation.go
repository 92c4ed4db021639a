package configuration

import (
	"errors"
	"fmt"

	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/robfig/cron/v3"
)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

func validateConfig(config *Configuration) error {
	err := validateSensors(config)
	if err != nil {
		return err
	}
	err = validateValve(config)
	if err != nil {
		return err
	}
	err = validateBlowdown(config)
	if err != nil {
		return err
	}
	err = validateMeters(config)
	if err != nil {
		return err
	}
	err = validatePumps(config)
	if err != nil {
		return err
	}
	return validateFuzzy(config)
}

func validateSensors(config *Configuration) error {
	sensors := map[string]SensorConfig{
		"conductivity": config.Sensors.Conductivity,
		"temperature":  config.Sensors.Temperature,
		"flow":         config.Sensors.Flow,
	}

	for name, sensorConfig := range sensors {
		subConfigs := 0
		if sensorConfig.File != nil {
			subConfigs++
		}
		if sensorConfig.Cmd != nil {
			subConfigs++
		}
		if sensorConfig.Fake != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Sensor %s: only one sensor type can be used per sensor definition block", name))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: sub-configuration for sensor is missing, use one of: file | cmd | fake", name))
		}

		if sensorConfig.File != nil && len(sensorConfig.File.Path) <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: no file path provided", name))
		}
		if sensorConfig.Cmd != nil && len(sensorConfig.Cmd.Exec) <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: sensor executable is missing", name))
		}
	}

	factor := config.Sensors.AntiFlashFactor
	if factor != 0 && (factor < 1 || factor > 10) {
		return errors.New(fmt.Sprintf("Sensors: antiFlashFactor must be 0 (off) or within [1, 10], got %d", factor))
	}

	return nil
}

func validateValve(config *Configuration) error {
	subConfigs := 0
	if config.Valve.File != nil {
		subConfigs++
	}
	if config.Valve.Cmd != nil {
		subConfigs++
	}
	if config.Valve.Fake != nil {
		subConfigs++
	}
	if subConfigs > 1 {
		return errors.New("Valve: only one valve type can be used per valve definition block")
	}
	if subConfigs <= 0 {
		return errors.New("Valve: sub-configuration for valve is missing, use one of: file | cmd | fake")
	}

	if config.Valve.File != nil && len(config.Valve.File.Path) <= 0 {
		return errors.New("Valve: no file path provided")
	}

	return nil
}

func validateBlowdown(config *Configuration) error {
	if config.Blowdown.Deadband < 0 {
		return errors.New(fmt.Sprintf("Blowdown: deadband must be >= 0, got %f", config.Blowdown.Deadband))
	}
	if config.Blowdown.Direction != DirectionHigh && config.Blowdown.Direction != DirectionLow {
		return errors.New(fmt.Sprintf("Blowdown: unsupported direction '%s', use one of: high | low", config.Blowdown.Direction))
	}
	if config.Blowdown.TimeLimit < 0 {
		return errors.New("Blowdown: timeLimit must be >= 0")
	}

	sampling := config.Sampling
	switch sampling.Mode {
	case SampleModeContinuous:
	case SampleModeIntermittent, SampleModeTimed:
		if sampling.Interval <= 0 {
			return errors.New(fmt.Sprintf("Sampling: interval must be > 0 for mode '%s'", sampling.Mode))
		}
		if sampling.Interval < sampling.Duration+sampling.HoldTime {
			ui.Warning("Sampling: interval %s is shorter than duration + hold (%s), cycles will run back to back",
				sampling.Interval, sampling.Duration+sampling.HoldTime)
		}
	case SampleModeProportional:
		if sampling.PropBand <= 0 {
			return errors.New("Sampling: propBand must be > 0 for proportional mode")
		}
		if sampling.MaxPropTime <= 0 {
			return errors.New("Sampling: maxPropTime must be > 0 for proportional mode")
		}
	default:
		return errors.New(fmt.Sprintf("Sampling: unsupported mode '%s', use one of: continuous | intermittent | timed | proportional", sampling.Mode))
	}

	return nil
}

func validateMeters(config *Configuration) error {
	meterIds := map[string]bool{}
	for _, meterConfig := range config.Meters {
		if meterIds[meterConfig.ID] {
			return errors.New(fmt.Sprintf("Duplicate meter id detected: %s", meterConfig.ID))
		}
		meterIds[meterConfig.ID] = true

		if meterConfig.Type != MeterTypeContactor && meterConfig.Type != MeterTypePaddlewheel {
			return errors.New(fmt.Sprintf("Meter %s: unsupported type '%s', use one of: contactor | paddlewheel", meterConfig.ID, meterConfig.Type))
		}
		if meterConfig.Type == MeterTypePaddlewheel && meterConfig.KFactor <= 0 {
			return errors.New(fmt.Sprintf("Meter %s: kFactor must be > 0 for paddlewheel meters", meterConfig.ID))
		}

		subConfigs := 0
		if meterConfig.Counter.File != nil {
			subConfigs++
		}
		if meterConfig.Counter.Cmd != nil {
			subConfigs++
		}
		if meterConfig.Counter.Fake != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Meter %s: only one counter type can be used per meter definition block", meterConfig.ID))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Meter %s: counter sub-configuration is missing, use one of: file | cmd | fake", meterConfig.ID))
		}
	}

	return nil
}

func validatePumps(config *Configuration) error {
	pumpIds := map[string]bool{}
	for _, pumpConfig := range config.Pumps {
		if pumpIds[pumpConfig.ID] {
			return errors.New(fmt.Sprintf("Duplicate pump id detected: %s", pumpConfig.ID))
		}
		pumpIds[pumpConfig.ID] = true

		subConfigs := 0
		if pumpConfig.Drive.File != nil {
			subConfigs++
		}
		if pumpConfig.Drive.Cmd != nil {
			subConfigs++
		}
		if pumpConfig.Drive.Fake != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Pump %s: only one drive type can be used per pump definition block", pumpConfig.ID))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: drive sub-configuration is missing, use one of: file | cmd | fake", pumpConfig.ID))
		}

		if err := validatePumpMode(config, pumpConfig); err != nil {
			return err
		}

		if pumpConfig.StepsPerMl <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: stepsPerMl must be > 0", pumpConfig.ID))
		}
		if pumpConfig.StepRate <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: stepRate must be > 0", pumpConfig.ID))
		}
	}

	return nil
}

func validatePumpMode(config *Configuration, pumpConfig PumpConfig) error {
	type modeBinding struct {
		mode    FeedMode
		present bool
	}
	bindings := []modeBinding{
		{FeedModeBlowdownFollow, pumpConfig.BlowdownFollow != nil},
		{FeedModePercentOfBlowdown, pumpConfig.PercentOfBlowdown != nil},
		{FeedModePercentOfTime, pumpConfig.PercentOfTime != nil},
		{FeedModeWaterContact, pumpConfig.WaterContact != nil},
		{FeedModePaddlewheel, pumpConfig.Paddlewheel != nil},
		{FeedModeScheduled, pumpConfig.Schedule != nil},
		{FeedModeFuzzy, pumpConfig.Fuzzy != nil},
	}

	found := false
	for _, binding := range bindings {
		if binding.mode != pumpConfig.Mode {
			if binding.present {
				ui.Warning("Pump %s: unused %s configuration", pumpConfig.ID, binding.mode)
			}
			continue
		}
		found = true
		if !binding.present {
			return errors.New(fmt.Sprintf("Pump %s: mode '%s' requires a matching sub-configuration block", pumpConfig.ID, pumpConfig.Mode))
		}
	}
	if !found {
		return errors.New(fmt.Sprintf("Pump %s: unsupported mode '%s'", pumpConfig.ID, pumpConfig.Mode))
	}

	switch pumpConfig.Mode {
	case FeedModePercentOfBlowdown:
		percent := pumpConfig.PercentOfBlowdown.Percent
		if percent <= 0 || percent > 100 {
			return errors.New(fmt.Sprintf("Pump %s: percentOfBlowdown percent must be within (0, 100], got %d", pumpConfig.ID, percent))
		}
	case FeedModePercentOfTime:
		sub := pumpConfig.PercentOfTime
		if sub.Percent < 0 || sub.Percent > 1000 {
			return errors.New(fmt.Sprintf("Pump %s: percentOfTime percent must be within [0, 1000] (0.1 %% units), got %d", pumpConfig.ID, sub.Percent))
		}
		if sub.CycleTime <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: percentOfTime cycleTime must be > 0", pumpConfig.ID))
		}
	case FeedModeWaterContact:
		sub := pumpConfig.WaterContact
		if !meterIdExists(sub.Meter, config) {
			return errors.New(fmt.Sprintf("Pump %s: no meter definition with id '%s' found", pumpConfig.ID, sub.Meter))
		}
		if sub.ContactDivider <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: waterContact contactDivider must be > 0", pumpConfig.ID))
		}
	case FeedModePaddlewheel:
		sub := pumpConfig.Paddlewheel
		if !meterIdExists(sub.Meter, config) {
			return errors.New(fmt.Sprintf("Pump %s: no meter definition with id '%s' found", pumpConfig.ID, sub.Meter))
		}
		if sub.VolumeToInitiate <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: paddlewheel volumeToInitiate must be > 0", pumpConfig.ID))
		}
	case FeedModeScheduled:
		sub := pumpConfig.Schedule
		if _, err := cron.ParseStandard(sub.Cron); err != nil {
			return errors.New(fmt.Sprintf("Pump %s: invalid cron spec '%s': %s", pumpConfig.ID, sub.Cron, err))
		}
		if sub.FeedDuration <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: schedule feedDuration must be > 0", pumpConfig.ID))
		}
	case FeedModeFuzzy:
		sub := pumpConfig.Fuzzy
		if sub.Output != "caustic" && sub.Output != "sulfite" && sub.Output != "acid" {
			return errors.New(fmt.Sprintf("Pump %s: unsupported fuzzy output '%s', use one of: caustic | sulfite | acid", pumpConfig.ID, sub.Output))
		}
		if sub.MaxRate <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: fuzzy maxRate must be > 0", pumpConfig.ID))
		}
		if sub.CycleTime <= 0 {
			return errors.New(fmt.Sprintf("Pump %s: fuzzy cycleTime must be > 0", pumpConfig.ID))
		}
		if !config.Fuzzy.Enabled {
			ui.Warning("Pump %s: fuzzy mode configured but the advisory engine is disabled", pumpConfig.ID)
		}
	}

	return nil
}

func meterIdExists(meterId string, config *Configuration) bool {
	for _, meter := range config.Meters {
		if meter.ID == meterId {
			return true
		}
	}

	return false
}

func validateFuzzy(config *Configuration) error {
	if !config.Fuzzy.Enabled {
		return nil
	}

	parameters := map[string]FuzzyParameterConfig{
		"tds":        config.Fuzzy.TDS,
		"alkalinity": config.Fuzzy.Alkalinity,
		"sulfite":    config.Fuzzy.Sulfite,
		"ph":         config.Fuzzy.PH,
	}
	for name, parameter := range parameters {
		if parameter.Setpoint <= 0 {
			return errors.New(fmt.Sprintf("Fuzzy %s: setpoint must be > 0", name))
		}
		if parameter.Deadband <= 0 {
			return errors.New(fmt.Sprintf("Fuzzy %s: deadband must be > 0", name))
		}
	}

	if len(config.Fuzzy.Rules) > 64 {
		return errors.New(fmt.Sprintf("Fuzzy: at most 64 rules are supported, got %d", len(config.Fuzzy.Rules)))
	}
	for i, rule := range config.Fuzzy.Rules {
		if rule.Weight < 0 || rule.Weight > 1 {
			return errors.New(fmt.Sprintf("Fuzzy rule %d: weight must be within [0, 1], got %f", i, rule.Weight))
		}
	}

	return nil
}
