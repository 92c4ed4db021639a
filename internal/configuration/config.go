package configuration

import (
	"os"
	"time"

	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	ControlTickRate     time.Duration `json:"controlTickRate"`
	MeasurementTickRate time.Duration `json:"measurementTickRate"`

	CondRollingWindowSize int `json:"condRollingWindowSize"`
	TrendWindowSize       int `json:"trendWindowSize"`

	PersistenceFlushRate time.Duration `json:"persistenceFlushRate"`

	Sensors  SensorsConfig  `json:"sensors"`
	Valve    ValveConfig    `json:"valve"`
	Blowdown BlowdownConfig `json:"blowdown"`
	Sampling SamplingConfig `json:"sampling"`
	Pumps    []PumpConfig   `json:"pumps"`
	Meters   []MeterConfig  `json:"meters"`
	Fuzzy    FuzzyConfig    `json:"fuzzy"`
	Alarms   AlarmConfig    `json:"alarms"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
	Mqtt       *MqttConfig      `json:"mqtt"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("boilerctl")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/boilerctl/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/boilerctl/boilerctl.db")

	viper.SetDefault("ControlTickRate", 100*time.Millisecond)
	viper.SetDefault("MeasurementTickRate", 500*time.Millisecond)
	viper.SetDefault("CondRollingWindowSize", 10)
	viper.SetDefault("TrendWindowSize", 60)
	viper.SetDefault("PersistenceFlushRate", 1*time.Minute)

	viper.SetDefault("blowdown.setpoint", 2500.0)
	viper.SetDefault("blowdown.deadband", 50.0)
	viper.SetDefault("blowdown.direction", DirectionHigh)
	viper.SetDefault("blowdown.timeLimit", 0)
	viper.SetDefault("blowdown.ballValveDelay", 0)
	viper.SetDefault("blowdown.hoa", HOAAuto)

	viper.SetDefault("sampling.mode", SampleModeContinuous)
	viper.SetDefault("sampling.interval", 1*time.Hour)
	viper.SetDefault("sampling.duration", 5*time.Minute)
	viper.SetDefault("sampling.holdTime", 1*time.Minute)
	viper.SetDefault("sampling.blowTime", 10*time.Minute)
	viper.SetDefault("sampling.propBand", 200.0)
	viper.SetDefault("sampling.maxPropTime", 10*time.Minute)

	viper.SetDefault("fuzzy.tds.setpoint", 2500.0)
	viper.SetDefault("fuzzy.tds.deadband", 50.0)
	viper.SetDefault("fuzzy.alkalinity.setpoint", 400.0)
	viper.SetDefault("fuzzy.alkalinity.deadband", 50.0)
	viper.SetDefault("fuzzy.sulfite.setpoint", 40.0)
	viper.SetDefault("fuzzy.sulfite.deadband", 10.0)
	viper.SetDefault("fuzzy.ph.setpoint", 11.0)
	viper.SetDefault("fuzzy.ph.deadband", 0.3)

	viper.SetDefault("alarms.condHigh", 5000.0)
	viper.SetDefault("alarms.condLow", 0.0)
	viper.SetDefault("alarms.blowdownTimeout", true)
	viper.SetDefault("alarms.pumpLockout", true)
	viper.SetDefault("alarms.noFlow", true)
	viper.SetDefault("alarms.sensorError", true)

	viper.SetDefault("pumps", []PumpConfig{})
	viper.SetDefault("meters", []MeterConfig{})
}

// DetectConfigFile detects the path of the first existing config file
func DetectConfigFile() string {
	return viper.ConfigFileUsed()
}

// DetectAndReadConfigFile detects and reads the config file, returning its path
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

// LoadConfig decodes the configuration read by viper into CurrentConfig
func LoadConfig() {
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			modeValueHookFunc(),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
