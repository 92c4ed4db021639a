package configuration

import "time"

type FuzzyConfig struct {
	// Enabled turns advisory evaluation on. Disabled keeps the engine idle
	// and reports zero rates.
	Enabled bool `json:"enabled"`

	TDS        FuzzyParameterConfig `json:"tds"`
	Alkalinity FuzzyParameterConfig `json:"alkalinity"`
	Sulfite    FuzzyParameterConfig `json:"sulfite"`
	PH         FuzzyParameterConfig `json:"ph"`

	// ManualInputMaxAge invalidates cached manual test entries older than
	// this. 0 keeps entries until overwritten.
	ManualInputMaxAge time.Duration `json:"manualInputMaxAge"`

	// Rules replaces the built-in rule base when non-empty.
	Rules []FuzzyRuleConfig `json:"rules,omitempty"`
}

// FuzzyParameterConfig centers the linguistic terms of one input around a
// setpoint with the given deadband.
type FuzzyParameterConfig struct {
	Setpoint float64 `json:"setpoint"`
	Deadband float64 `json:"deadband"`
}

// FuzzyRuleConfig is a single rule given as term names per variable, an
// empty string meaning don't-care.
type FuzzyRuleConfig struct {
	TDS         string `json:"tds,omitempty"`
	Alkalinity  string `json:"alkalinity,omitempty"`
	Sulfite     string `json:"sulfite,omitempty"`
	PH          string `json:"ph,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Trend       string `json:"trend,omitempty"`

	Blowdown   string `json:"blowdown,omitempty"`
	Caustic    string `json:"caustic,omitempty"`
	SulfiteOut string `json:"sulfiteOut,omitempty"`
	Acid       string `json:"acid,omitempty"`

	Weight float64 `json:"weight"`
}
