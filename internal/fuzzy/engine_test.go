package fuzzy

import (
	"testing"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/stretchr/testify/assert"
)

func testFuzzyConfig() configuration.FuzzyConfig {
	return configuration.FuzzyConfig{
		Enabled:    true,
		TDS:        configuration.FuzzyParameterConfig{Setpoint: 2500, Deadband: 50},
		Alkalinity: configuration.FuzzyParameterConfig{Setpoint: 400, Deadband: 50},
		Sulfite:    configuration.FuzzyParameterConfig{Setpoint: 40, Deadband: 10},
		PH:         configuration.FuzzyParameterConfig{Setpoint: 11, Deadband: 0.3},
	}
}

func atSetpointInputs() Inputs {
	return Inputs{Temperature: 85, CondTrend: 0}
}

func newTestEngine(t *testing.T) *Engine {
	engine, err := NewEngine(testFuzzyConfig())
	assert.NoError(t, err)
	return engine
}

func TestEvaluateAtSetpointsRecommendsMinimalDosing(t *testing.T) {
	// GIVEN all chemistry at setpoint
	engine := newTestEngine(t)
	now := time.Now()
	assert.NoError(t, engine.SetManualInput(InputTDS, 2500, now))
	assert.NoError(t, engine.SetManualInput(InputAlkalinity, 400, now))
	assert.NoError(t, engine.SetManualInput(InputSulfite, 40, now))
	assert.NoError(t, engine.SetManualInput(InputPH, 11, now))

	// WHEN
	result := engine.Evaluate(now, atSetpointInputs())

	// THEN blowdown, caustic and acid are near zero
	assert.Less(t, result.BlowdownRate, 15.0)
	assert.Less(t, result.CausticRate, 15.0)
	assert.Less(t, result.AcidRate, 15.0)
	// sulfite keeps a small maintenance dose
	assert.InDelta(t, 25.0, result.SulfiteRate, 5.0)
	assert.Greater(t, result.ActiveRules, 0)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
}

func TestConfidenceDropsWithMissingBenchEntries(t *testing.T) {
	// GIVEN only two of the four bench tests entered
	engine := newTestEngine(t)
	now := time.Now()
	assert.NoError(t, engine.SetManualInput(InputTDS, 2500, now))
	assert.NoError(t, engine.SetManualInput(InputPH, 11, now))

	// WHEN
	partial := engine.Evaluate(now, atSetpointInputs())

	// THEN
	assert.Equal(t, ConfidenceMedium, partial.Confidence)

	// WHEN no bench tests are entered at all
	none := newTestEngine(t).Evaluate(now, atSetpointInputs())

	// THEN
	assert.Equal(t, ConfidenceLow, none.Confidence)
}

func TestEvaluateVeryHighTDSRecommendsVeryHighBlowdown(t *testing.T) {
	// GIVEN
	engine := newTestEngine(t)
	now := time.Now()
	assert.NoError(t, engine.SetManualInput(InputTDS, 3750, now))

	// WHEN
	result := engine.Evaluate(now, atSetpointInputs())

	// THEN
	assert.Greater(t, result.BlowdownRate, 85.0)
	assert.Equal(t, 0, result.DominantRule)
	assert.InDelta(t, 1.0, result.MaxFiringStrength, 0.001)
}

func TestEvaluateVeryLowAlkalinityRecommendsCaustic(t *testing.T) {
	// GIVEN
	engine := newTestEngine(t)
	now := time.Now()
	assert.NoError(t, engine.SetManualInput(InputAlkalinity, 50, now))

	// WHEN
	result := engine.Evaluate(now, atSetpointInputs())

	// THEN the VeryHigh caustic term dominates, tempered by the
	// maintain-on-normal-pH rule
	assert.Greater(t, result.CausticRate, 50.0)
}

func TestEvaluateRisingTrendAddsPreemptiveBlowdown(t *testing.T) {
	// GIVEN chemistry at setpoint
	engine := newTestEngine(t)
	now := time.Now()
	baseline := engine.Evaluate(now, atSetpointInputs())

	// WHEN the conductivity trend rises fast
	result := engine.Evaluate(now, Inputs{Temperature: 85, CondTrend: 50})

	// THEN the blowdown recommendation increases
	assert.Greater(t, result.BlowdownRate, baseline.BlowdownRate)
	assert.Greater(t, result.BlowdownRate, 25.0)
}

func TestEvaluateMissingManualInputsAssumesNormal(t *testing.T) {
	// GIVEN no bench tests entered at all
	engine := newTestEngine(t)

	// WHEN
	result := engine.Evaluate(time.Now(), atSetpointInputs())

	// THEN the recommendation matches an in-balance boiler
	assert.Less(t, result.BlowdownRate, 15.0)
	assert.Less(t, result.CausticRate, 15.0)
	assert.Less(t, result.AcidRate, 15.0)
}

func TestSetManualInputRejectsOutOfRangeValues(t *testing.T) {
	// GIVEN
	engine := newTestEngine(t)
	now := time.Now()

	// WHEN a TDS reading beyond the variable range is entered
	err := engine.SetManualInput(InputTDS, 6000, now)

	// THEN the entry is rejected
	assert.Error(t, err)

	// AND evaluation falls back to the Normal assumption
	result := engine.Evaluate(now, atSetpointInputs())
	assert.Less(t, result.BlowdownRate, 15.0)
}

func TestManualInputExpires(t *testing.T) {
	// GIVEN a max entry age of one hour
	config := testFuzzyConfig()
	config.ManualInputMaxAge = time.Hour
	engine, err := NewEngine(config)
	assert.NoError(t, err)

	enteredAt := time.Now()
	assert.NoError(t, engine.SetManualInput(InputTDS, 3750, enteredAt))

	// WHEN evaluating within the entry age
	fresh := engine.Evaluate(enteredAt.Add(30*time.Minute), atSetpointInputs())

	// THEN the hot reading drives blowdown
	assert.Greater(t, fresh.BlowdownRate, 85.0)

	// WHEN the entry has gone stale
	stale := engine.Evaluate(enteredAt.Add(2*time.Hour), atSetpointInputs())

	// THEN the engine no longer trusts it
	assert.Less(t, stale.BlowdownRate, 15.0)
}

func TestLowPHRecommendsCausticNotAcid(t *testing.T) {
	// GIVEN
	engine := newTestEngine(t)
	now := time.Now()
	assert.NoError(t, engine.SetManualInput(InputPH, 8, now))

	// WHEN
	result := engine.Evaluate(now, atSetpointInputs())

	// THEN
	assert.Greater(t, result.CausticRate, 40.0)
	assert.Less(t, result.AcidRate, 15.0)
}

func TestHighPHRecommendsAcid(t *testing.T) {
	// GIVEN
	engine := newTestEngine(t)
	now := time.Now()
	assert.NoError(t, engine.SetManualInput(InputPH, 13, now))

	// WHEN
	result := engine.Evaluate(now, atSetpointInputs())

	// THEN
	assert.Greater(t, result.AcidRate, 30.0)
	assert.Less(t, result.CausticRate, 15.0)
}

func TestCustomRuleBase(t *testing.T) {
	// GIVEN a single configured rule
	config := testFuzzyConfig()
	config.Rules = []configuration.FuzzyRuleConfig{
		{TDS: "VeryHigh", Blowdown: "VeryHigh", Weight: 1.0},
	}
	engine, err := NewEngine(config)
	assert.NoError(t, err)
	now := time.Now()

	// WHEN nothing matches the rule
	result := engine.Evaluate(now, atSetpointInputs())

	// THEN no output is recommended at all
	assert.Equal(t, 0.0, result.BlowdownRate)
	assert.Equal(t, 0, result.ActiveRules)

	// WHEN the rule matches
	assert.NoError(t, engine.SetManualInput(InputTDS, 3750, now))
	result = engine.Evaluate(now, atSetpointInputs())

	// THEN
	assert.Greater(t, result.BlowdownRate, 85.0)
	assert.Equal(t, 1, result.ActiveRules)
}

func TestCustomRuleBaseRejectsUnknownTerm(t *testing.T) {
	// GIVEN
	config := testFuzzyConfig()
	config.Rules = []configuration.FuzzyRuleConfig{
		{TDS: "Enormous", Blowdown: "VeryHigh", Weight: 1.0},
	}

	// WHEN
	_, err := NewEngine(config)

	// THEN
	assert.Error(t, err)
}

func TestInputByName(t *testing.T) {
	// GIVEN / WHEN / THEN
	assert.Equal(t, InputTDS, InputByName("tds"))
	assert.Equal(t, InputPH, InputByName("pH"))
	assert.Equal(t, Input(-1), InputByName("bogus"))
}
