// Package fuzzy implements the Mamdani advisory engine for boiler water
// chemistry. Bench chemistry (TDS, alkalinity, sulfite residual, pH) is
// entered manually; temperature and the conductivity trend come from the
// measurement monitor. The engine recommends dosing rates, it never drives
// hardware itself.
package fuzzy

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
)

const (
	// resolution is the number of samples used for output aggregation and
	// centroid defuzzification.
	resolution = 101
	// negligible is the firing strength below which a rule is ignored.
	negligible = 0.001
)

// Inputs are the measured values fed into every evaluation.
type Inputs struct {
	Temperature float64 `json:"temperature"`
	CondTrend   float64 `json:"condTrend"`
}

// Result is one advisory evaluation. Rates are percentages in [0, 100].
type Result struct {
	BlowdownRate float64 `json:"blowdownRate"`
	CausticRate  float64 `json:"causticRate"`
	SulfiteRate  float64 `json:"sulfiteRate"`
	AcidRate     float64 `json:"acidRate"`

	ActiveRules       int       `json:"activeRules"`
	MaxFiringStrength float64   `json:"maxFiringStrength"`
	DominantRule      int       `json:"dominantRule"`
	Confidence        string    `json:"confidence"`
	EvaluatedAt       time.Time `json:"evaluatedAt"`
}

const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Rate returns the recommendation for one output.
func (r Result) Rate(output Output) float64 {
	switch output {
	case OutputBlowdown:
		return r.BlowdownRate
	case OutputCaustic:
		return r.CausticRate
	case OutputSulfite:
		return r.SulfiteRate
	case OutputAcid:
		return r.AcidRate
	}
	return 0
}

// ManualEntry is a cached bench chemistry test result.
type ManualEntry struct {
	Value     float64   `json:"value"`
	Valid     bool      `json:"valid"`
	EnteredAt time.Time `json:"enteredAt"`
}

type Engine struct {
	config  configuration.FuzzyConfig
	inputs  [inputCount]Variable
	outputs [outputCount]Variable
	rules   []Rule

	mu         sync.Mutex
	manual     [inputCount]ManualEntry
	lastResult Result
}

func NewEngine(config configuration.FuzzyConfig) (*Engine, error) {
	engine := &Engine{
		config:  config,
		inputs:  buildInputVariables(config),
		outputs: buildOutputVariables(),
	}

	if len(config.Rules) > 0 {
		rules, err := rulesFromConfig(config.Rules, engine.inputs, engine.outputs)
		if err != nil {
			return nil, err
		}
		engine.rules = rules
	} else {
		engine.rules = defaultRules()
	}

	return engine, nil
}

// Rules returns a copy of the active rule base.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// SetManualInput caches a bench test result. Values outside the variable
// range are rejected and invalidate any previous entry, so a typo can never
// drive dosing.
func (e *Engine) SetManualInput(input Input, value float64, now time.Time) error {
	if input < 0 || input >= inputCount {
		return fmt.Errorf("unknown input %d", input)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	variable := e.inputs[input]
	if math.IsNaN(value) || value < variable.Min || value > variable.Max {
		e.manual[input] = ManualEntry{Value: value, Valid: false, EnteredAt: now}
		return fmt.Errorf("%s value %g is outside [%g, %g]", variable.Name, value, variable.Min, variable.Max)
	}

	e.manual[input] = ManualEntry{Value: value, Valid: true, EnteredAt: now}
	return nil
}

// ClearManualInput invalidates a cached bench test result.
func (e *Engine) ClearManualInput(input Input) {
	if input < 0 || input >= inputCount {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manual[input] = ManualEntry{}
}

// ManualInputs returns the cached bench entries keyed by input name.
func (e *Engine) ManualInputs() map[string]ManualEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	entries := map[string]ManualEntry{}
	for i := InputTDS; i <= InputPH; i++ {
		entries[i.String()] = e.manual[i]
	}
	return entries
}

// LastResult returns the most recent evaluation.
func (e *Engine) LastResult() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastResult
}

// Evaluate runs one Mamdani inference pass: fuzzify, fire all rules with
// min-AND, aggregate the clipped output terms with max-OR and defuzzify by
// centroid.
func (e *Engine) Evaluate(now time.Time, inputs Inputs) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var membership [inputCount][]float64

	// manual chemistry entries; a missing or stale entry conservatively
	// counts as fully Normal
	usableEntries := 0
	for input := InputTDS; input <= InputPH; input++ {
		entry := e.manual[input]
		if e.entryUsable(entry, now) {
			usableEntries++
			membership[input] = e.inputs[input].Fuzzify(entry.Value)
		} else {
			degrees := make([]float64, len(e.inputs[input].Sets))
			degrees[normalTerm] = 1.0
			membership[input] = degrees
		}
	}

	membership[InputTemperature] = e.inputs[InputTemperature].Fuzzify(inputs.Temperature)
	membership[InputTrend] = e.inputs[InputTrend].Fuzzify(inputs.CondTrend)

	var aggregation [outputCount][resolution]float64

	result := Result{
		DominantRule: -1,
		Confidence:   confidence(usableEntries),
		EvaluatedAt:  now,
	}

	for r, rule := range e.rules {
		if !rule.Enabled {
			continue
		}

		firingStrength := 1.0
		for i := 0; i < int(inputCount); i++ {
			term := rule.Antecedent[i]
			if term == DontCare || term >= len(membership[i]) {
				continue
			}
			firingStrength = math.Min(firingStrength, membership[i][term])
		}
		firingStrength *= rule.Weight

		if firingStrength < negligible {
			continue
		}

		result.ActiveRules++
		if firingStrength > result.MaxFiringStrength {
			result.MaxFiringStrength = firingStrength
			result.DominantRule = r
		}

		for o := 0; o < int(outputCount); o++ {
			term := rule.Consequent[o]
			if term == DontCare || term >= len(e.outputs[o].Sets) {
				continue
			}
			outVar := e.outputs[o]
			outMF := outVar.Sets[term]

			for x := 0; x < resolution; x++ {
				crisp := outVar.Min + (outVar.Max-outVar.Min)*float64(x)/(resolution-1)
				clipped := math.Min(outMF.Evaluate(crisp), firingStrength)
				aggregation[o][x] = math.Max(aggregation[o][x], clipped)
			}
		}
	}

	result.BlowdownRate = defuzzify(e.outputs[OutputBlowdown], aggregation[OutputBlowdown])
	result.CausticRate = defuzzify(e.outputs[OutputCaustic], aggregation[OutputCaustic])
	result.SulfiteRate = defuzzify(e.outputs[OutputSulfite], aggregation[OutputSulfite])
	result.AcidRate = defuzzify(e.outputs[OutputAcid], aggregation[OutputAcid])

	e.lastResult = result
	return result
}

func (e *Engine) entryUsable(entry ManualEntry, now time.Time) bool {
	if !entry.Valid {
		return false
	}
	maxAge := e.config.ManualInputMaxAge
	if maxAge > 0 && now.Sub(entry.EnteredAt) > maxAge {
		return false
	}
	return true
}

// confidence classifies how much bench chemistry backed an evaluation. With
// stale or missing entries the Normal assumption fills the gaps, so the
// recommendation is correspondingly less trustworthy.
func confidence(usableEntries int) string {
	switch {
	case usableEntries == int(InputPH-InputTDS)+1:
		return ConfidenceHigh
	case usableEntries >= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// defuzzify computes the center of gravity of the aggregated output.
func defuzzify(variable Variable, aggregated [resolution]float64) float64 {
	sumWeighted := 0.0
	sumMembership := 0.0

	for x := 0; x < resolution; x++ {
		crisp := variable.Min + (variable.Max-variable.Min)*float64(x)/(resolution-1)
		sumWeighted += crisp * aggregated[x]
		sumMembership += aggregated[x]
	}

	if sumMembership < negligible {
		return 0
	}
	return sumWeighted / sumMembership
}
