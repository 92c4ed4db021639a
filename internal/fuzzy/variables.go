package fuzzy

import (
	"strings"

	"github.com/boilerctl/boilerctl/internal/configuration"
)

type Input int

const (
	InputTDS Input = iota
	InputAlkalinity
	InputSulfite
	InputPH
	InputTemperature
	InputTrend
	inputCount
)

var inputNames = [inputCount]string{"tds", "alkalinity", "sulfite", "ph", "temperature", "trend"}

func (i Input) String() string {
	if i < 0 || i >= inputCount {
		return "unknown"
	}
	return inputNames[i]
}

// InputByName resolves an input variable name, returning -1 when unknown.
func InputByName(name string) Input {
	for i, candidate := range inputNames {
		if strings.EqualFold(name, candidate) {
			return Input(i)
		}
	}
	return -1
}

type Output int

const (
	OutputBlowdown Output = iota
	OutputCaustic
	OutputSulfite
	OutputAcid
	outputCount
)

var outputNames = [outputCount]string{"blowdown", "caustic", "sulfite", "acid"}

func (o Output) String() string {
	if o < 0 || o >= outputCount {
		return "unknown"
	}
	return outputNames[o]
}

// Variable is a linguistic variable over a crisp range.
type Variable struct {
	Name string
	Min  float64
	Max  float64
	Sets []MembershipFunc
}

// Fuzzify returns the membership degree of value in every term.
func (v Variable) Fuzzify(value float64) []float64 {
	degrees := make([]float64, len(v.Sets))
	for i, set := range v.Sets {
		degrees[i] = set.Evaluate(value)
	}
	return degrees
}

// TermIndex resolves a term name, returning -1 when unknown.
func (v Variable) TermIndex(name string) int {
	for i, set := range v.Sets {
		if strings.EqualFold(set.Name, name) {
			return i
		}
	}
	return -1
}

// the normal/centered term of the manual-entry variables
const normalTerm = 2

// buildInputVariables centers the chemistry terms around the configured
// setpoints, so the same rule base adapts to any boiler.
func buildInputVariables(config configuration.FuzzyConfig) [inputCount]Variable {
	var vars [inputCount]Variable

	sp, db := config.TDS.Setpoint, config.TDS.Deadband
	vars[InputTDS] = Variable{
		Name: "TDS", Min: 0, Max: 5000,
		Sets: []MembershipFunc{
			trapezoidal("VeryLow", 0, 0, sp*0.5, sp*0.7),
			triangular("Low", sp*0.5, sp*0.75, sp-db),
			triangular("Normal", sp-db*2, sp, sp+db*2),
			triangular("High", sp+db, sp*1.25, sp*1.5),
			trapezoidal("VeryHigh", sp*1.3, sp*1.5, 5000, 5000),
		},
	}

	sp, db = config.Alkalinity.Setpoint, config.Alkalinity.Deadband
	vars[InputAlkalinity] = Variable{
		Name: "Alkalinity", Min: 0, Max: 1000,
		Sets: []MembershipFunc{
			trapezoidal("VeryLow", 0, 0, sp*0.3, sp*0.5),
			triangular("Low", sp*0.4, sp*0.6, sp-db),
			triangular("Normal", sp-db*2, sp, sp+db*2),
			triangular("High", sp+db, sp*1.4, sp*1.8),
			trapezoidal("VeryHigh", sp*1.5, sp*2.0, 1000, 1000),
		},
	}

	sp, db = config.Sulfite.Setpoint, config.Sulfite.Deadband
	vars[InputSulfite] = Variable{
		Name: "Sulfite", Min: 0, Max: 100,
		Sets: []MembershipFunc{
			trapezoidal("VeryLow", 0, 0, sp*0.2, sp*0.4),
			triangular("Low", sp*0.3, sp*0.5, sp-db),
			triangular("Normal", sp-db*2, sp, sp+db*2),
			triangular("High", sp+db, sp*1.5, sp*2.0),
			trapezoidal("VeryHigh", sp*1.8, sp*2.5, 100, 100),
		},
	}

	sp, db = config.PH.Setpoint, config.PH.Deadband
	vars[InputPH] = Variable{
		Name: "pH", Min: 7, Max: 14,
		Sets: []MembershipFunc{
			trapezoidal("Low", 7.0, 7.0, 9.0, 10.0),
			triangular("SlightlyLow", 9.5, 10.5, sp-db),
			triangular("Normal", sp-db, sp, sp+db),
			triangular("SlightlyHigh", sp+db, 12.0, 12.5),
			trapezoidal("High", 12.0, 12.5, 14.0, 14.0),
		},
	}

	vars[InputTemperature] = Variable{
		Name: "Temperature", Min: 0, Max: 100,
		Sets: []MembershipFunc{
			trapezoidal("Cold", 0, 0, 20, 40),
			triangular("Warm", 30, 50, 70),
			trapezoidal("Hot", 60, 80, 100, 100),
		},
	}

	vars[InputTrend] = Variable{
		Name: "Trend", Min: -100, Max: 100,
		Sets: []MembershipFunc{
			trapezoidal("Decreasing", -100, -100, -30, -10),
			triangular("SlightDecrease", -20, -5, 0),
			triangular("Stable", -5, 0, 5),
			triangular("SlightIncrease", 0, 5, 20),
			trapezoidal("Increasing", 10, 30, 100, 100),
		},
	}

	return vars
}

// buildOutputVariables returns the four dosing recommendations, each on a
// 0-100 % range with five evenly spread triangular terms.
func buildOutputVariables() [outputCount]Variable {
	doseTerms := func() []MembershipFunc {
		return []MembershipFunc{
			triangular("Zero", 0, 0, 25),
			triangular("Low", 0, 25, 50),
			triangular("Medium", 25, 50, 75),
			triangular("High", 50, 75, 100),
			triangular("VeryHigh", 75, 100, 100),
		}
	}

	var vars [outputCount]Variable
	vars[OutputBlowdown] = Variable{Name: "Blowdown", Min: 0, Max: 100, Sets: doseTerms()}
	vars[OutputCaustic] = Variable{Name: "Caustic", Min: 0, Max: 100, Sets: doseTerms()}
	vars[OutputSulfite] = Variable{Name: "Sulfite", Min: 0, Max: 100, Sets: doseTerms()}
	vars[OutputAcid] = Variable{Name: "Acid", Min: 0, Max: 100, Sets: doseTerms()}
	return vars
}
