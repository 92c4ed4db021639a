package blowdown

import (
	"testing"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/hal"
	"github.com/stretchr/testify/assert"
)

const handTimeout = 600 * time.Second

func continuousController(valve hal.Valve) *Controller {
	return NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
			HOA:       configuration.HOAAuto,
		},
		configuration.SamplingConfig{
			Mode: configuration.SampleModeContinuous,
		},
		handTimeout,
	)
}

func TestContinuousModeHysteresis(t *testing.T) {
	// GIVEN setpoint 2500 and deadband 50
	valve := &hal.FakeValve{}
	controller := continuousController(valve)
	now := time.Now()

	// WHEN conductivity rises above the setpoint
	snapshot := controller.Tick(now, 2501, true)

	// THEN the valve opens
	assert.True(t, snapshot.ValveOpen)
	assert.Equal(t, StateBlowingDown, snapshot.State)

	// WHEN conductivity falls inside the deadband
	now = now.Add(time.Second)
	snapshot = controller.Tick(now, 2460, true)

	// THEN the valve stays open, no chatter
	assert.True(t, snapshot.ValveOpen)

	// WHEN conductivity falls below setpoint - deadband
	now = now.Add(time.Second)
	snapshot = controller.Tick(now, 2449, true)

	// THEN the valve closes
	assert.False(t, snapshot.ValveOpen)
	assert.Equal(t, StateIdle, snapshot.State)
}

func TestContinuousModeLowDirection(t *testing.T) {
	// GIVEN
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionLow,
		},
		configuration.SamplingConfig{Mode: configuration.SampleModeContinuous},
		handTimeout,
	)
	now := time.Now()

	// WHEN conductivity is below the setpoint
	snapshot := controller.Tick(now, 2400, true)

	// THEN the valve opens
	assert.True(t, snapshot.ValveOpen)

	// WHEN conductivity rises above setpoint + deadband
	snapshot = controller.Tick(now.Add(time.Second), 2551, true)

	// THEN the valve closes
	assert.False(t, snapshot.ValveOpen)
}

func TestNoFlowClosesValveFirst(t *testing.T) {
	// GIVEN an open valve
	valve := &hal.FakeValve{}
	controller := continuousController(valve)
	now := time.Now()
	controller.Tick(now, 3000, true)
	assert.True(t, valve.IsOpen())

	// WHEN flow is lost
	snapshot := controller.Tick(now.Add(time.Second), 3000, false)

	// THEN the valve closes even though conductivity is high
	assert.False(t, snapshot.ValveOpen)
	assert.False(t, valve.IsOpen())

	// AND the valve stays closed while flow is missing
	snapshot = controller.Tick(now.Add(2*time.Second), 3000, false)
	assert.False(t, snapshot.ValveOpen)
}

func TestHOAOffClosesValve(t *testing.T) {
	// GIVEN
	valve := &hal.FakeValve{}
	controller := continuousController(valve)
	now := time.Now()
	controller.Tick(now, 3000, true)

	// WHEN
	controller.SetHOA(configuration.HOAOff)
	snapshot := controller.Tick(now.Add(time.Second), 3000, true)

	// THEN
	assert.False(t, snapshot.ValveOpen)
	assert.Equal(t, configuration.HOAOff, snapshot.HOA)
}

func TestHOAHandOpensAndTimesOutToAuto(t *testing.T) {
	// GIVEN
	valve := &hal.FakeValve{}
	controller := continuousController(valve)
	controller.SetHOA(configuration.HOAHand)
	now := time.Now()

	// WHEN hand mode is entered with low conductivity
	snapshot := controller.Tick(now, 2000, true)

	// THEN the valve opens regardless of the reading
	assert.True(t, snapshot.ValveOpen)

	// WHEN the hand timeout expires
	snapshot = controller.Tick(now.Add(handTimeout), 2000, true)

	// THEN the valve closes and the mode reverts to auto
	assert.False(t, snapshot.ValveOpen)
	assert.Equal(t, configuration.HOAAuto, snapshot.HOA)
}

func TestBallValveDelayGatesTransitions(t *testing.T) {
	// GIVEN a valve with 15s travel time
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:       2500,
			Deadband:       50,
			Direction:      configuration.DirectionHigh,
			BallValveDelay: 15 * time.Second,
		},
		configuration.SamplingConfig{Mode: configuration.SampleModeContinuous},
		handTimeout,
	)
	now := time.Now()

	// WHEN the open command is issued
	snapshot := controller.Tick(now, 3000, true)

	// THEN the valve is still travelling
	assert.Equal(t, StateValveOpening, snapshot.State)
	assert.False(t, snapshot.ValveOpen)

	// WHEN the travel time has not yet elapsed
	snapshot = controller.Tick(now.Add(10*time.Second), 3000, true)
	assert.Equal(t, StateValveOpening, snapshot.State)

	// WHEN the travel time elapses
	snapshot = controller.Tick(now.Add(15*time.Second), 3000, true)

	// THEN blowdown begins
	assert.Equal(t, StateBlowingDown, snapshot.State)
	assert.True(t, snapshot.ValveOpen)
}

func TestTimeoutLatchesUntilReset(t *testing.T) {
	// GIVEN a 300s blowdown time limit
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
			TimeLimit: 300 * time.Second,
		},
		configuration.SamplingConfig{Mode: configuration.SampleModeContinuous},
		handTimeout,
	)
	now := time.Now()
	controller.Tick(now, 3000, true)

	// WHEN the blowdown exceeds the limit
	snapshot := controller.Tick(now.Add(301*time.Second), 3000, true)

	// THEN the valve closes and the timeout latches
	assert.False(t, snapshot.ValveOpen)
	assert.Equal(t, StateTimeout, snapshot.State)
	assert.True(t, snapshot.TimeoutLatched)

	// AND automatic control stays suspended even though conductivity is high
	snapshot = controller.Tick(now.Add(400*time.Second), 3000, true)
	assert.False(t, snapshot.ValveOpen)
	assert.True(t, snapshot.TimeoutLatched)

	// WHEN the timeout is reset
	controller.ResetTimeout()
	snapshot = controller.Tick(now.Add(401*time.Second), 3000, true)

	// THEN automatic control resumes
	assert.True(t, snapshot.ValveOpen)
	assert.False(t, snapshot.TimeoutLatched)
}

func TestTimeoutDoesNotBlockHandMode(t *testing.T) {
	// GIVEN a latched timeout
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
			TimeLimit: 300 * time.Second,
		},
		configuration.SamplingConfig{Mode: configuration.SampleModeContinuous},
		handTimeout,
	)
	now := time.Now()
	controller.Tick(now, 3000, true)
	snapshot := controller.Tick(now.Add(301*time.Second), 3000, true)
	assert.True(t, snapshot.TimeoutLatched)

	// WHEN the operator forces the valve open
	controller.SetHOA(configuration.HOAHand)
	snapshot = controller.Tick(now.Add(302*time.Second), 3000, true)

	// THEN the valve opens despite the latch
	assert.True(t, snapshot.ValveOpen)
}

func TestIntermittentModeCycle(t *testing.T) {
	// GIVEN
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
		},
		configuration.SamplingConfig{
			Mode:     configuration.SampleModeIntermittent,
			Interval: time.Hour,
			Duration: 5 * time.Minute,
			HoldTime: time.Minute,
		},
		handTimeout,
	)
	start := time.Now()

	// WHEN the controller starts
	snapshot := controller.Tick(start, 2000, true)

	// THEN no sample is drawn before the interval elapses
	assert.Equal(t, StateIdle, snapshot.State)
	assert.False(t, snapshot.ValveOpen)

	// WHEN the interval elapses
	sampleStart := start.Add(time.Hour)
	snapshot = controller.Tick(sampleStart, 2000, true)

	// THEN a sample is drawn
	assert.Equal(t, StateSampling, snapshot.State)
	assert.True(t, snapshot.ValveOpen)

	// WHEN the sample duration elapses with conductivity below setpoint
	holdStart := sampleStart.Add(5 * time.Minute)
	snapshot = controller.Tick(holdStart, 2000, true)

	// THEN the sample is trapped and held
	assert.Equal(t, StateHolding, snapshot.State)
	assert.False(t, snapshot.ValveOpen)
	assert.Equal(t, 2000.0, snapshot.TrappedSample)

	// WHEN the hold expires with conductivity still below setpoint
	snapshot = controller.Tick(holdStart.Add(time.Minute), 2000, true)

	// THEN the controller waits for the next interval
	assert.Equal(t, StateWaiting, snapshot.State)
}

func TestIntermittentModeBlowsDownHotSample(t *testing.T) {
	// GIVEN a sampling cycle in progress
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
		},
		configuration.SamplingConfig{
			Mode:     configuration.SampleModeIntermittent,
			Interval: time.Hour,
			Duration: 5 * time.Minute,
			HoldTime: time.Minute,
		},
		handTimeout,
	)
	start := time.Now()
	controller.Tick(start, 3000, true)
	sampleStart := start.Add(time.Hour)
	controller.Tick(sampleStart, 3000, true)

	// WHEN the sample duration elapses with conductivity above setpoint
	snapshot := controller.Tick(sampleStart.Add(5*time.Minute), 3000, true)

	// THEN blowdown continues instead of trapping the sample
	assert.Equal(t, StateBlowingDown, snapshot.State)
	assert.True(t, snapshot.ValveOpen)

	// WHEN conductivity drops below the setpoint
	snapshot = controller.Tick(sampleStart.Add(10*time.Minute), 2400, true)

	// THEN the sample is trapped and held
	assert.Equal(t, StateHolding, snapshot.State)
	assert.False(t, snapshot.ValveOpen)
}

func TestTimedModeBlowsForFixedTime(t *testing.T) {
	// GIVEN
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
		},
		configuration.SamplingConfig{
			Mode:     configuration.SampleModeTimed,
			Interval: time.Hour,
			Duration: 5 * time.Minute,
			HoldTime: time.Minute,
			BlowTime: 10 * time.Minute,
		},
		handTimeout,
	)
	start := time.Now()
	controller.Tick(start, 3000, true)
	sampleStart := start.Add(time.Hour)
	controller.Tick(sampleStart, 3000, true)
	holdStart := sampleStart.Add(5 * time.Minute)
	controller.Tick(holdStart, 3000, true)

	// WHEN the hold expires with a hot sample
	blowStart := holdStart.Add(time.Minute)
	snapshot := controller.Tick(blowStart, 3000, true)

	// THEN a fixed-length blowdown starts
	assert.Equal(t, StateBlowingDown, snapshot.State)

	// AND it ends after blowTime regardless of conductivity
	snapshot = controller.Tick(blowStart.Add(9*time.Minute), 3000, true)
	assert.Equal(t, StateBlowingDown, snapshot.State)
	snapshot = controller.Tick(blowStart.Add(10*time.Minute), 3000, true)
	assert.Equal(t, StateHolding, snapshot.State)
	assert.False(t, snapshot.ValveOpen)
}

func TestProportionalBlowdownTimeMonotonicAndClamped(t *testing.T) {
	// GIVEN
	setpoint := 2500.0
	propBand := 200.0
	maxPropTime := 10 * time.Minute

	// WHEN / THEN
	assert.Equal(t, time.Duration(0), proportionalBlowdownTime(2500, setpoint, propBand, maxPropTime))
	assert.Equal(t, time.Duration(0), proportionalBlowdownTime(2400, setpoint, propBand, maxPropTime))

	quarter := proportionalBlowdownTime(2550, setpoint, propBand, maxPropTime)
	half := proportionalBlowdownTime(2600, setpoint, propBand, maxPropTime)
	full := proportionalBlowdownTime(2700, setpoint, propBand, maxPropTime)
	beyond := proportionalBlowdownTime(5000, setpoint, propBand, maxPropTime)

	assert.Equal(t, 150*time.Second, quarter)
	assert.Equal(t, 300*time.Second, half)
	assert.Equal(t, maxPropTime, full)
	// clamped at the full proportional band
	assert.Equal(t, maxPropTime, beyond)
	assert.True(t, quarter < half && half < full)
}

func TestAccumulatedBlowdownTimeBanksOnClose(t *testing.T) {
	// GIVEN
	valve := &hal.FakeValve{}
	controller := continuousController(valve)
	now := time.Now()
	controller.Tick(now, 3000, true)

	// WHEN the blowdown ends after 120s
	snapshot := controller.Tick(now.Add(120*time.Second), 2000, true)

	// THEN the blowdown time is banked for the feed modes
	assert.Equal(t, 120*time.Second, snapshot.AccumulatedBlowdown)
	assert.Equal(t, 120*time.Second, snapshot.DailyTotal)

	// WHEN the feed engine claims the bank
	controller.ClearAccumulated()
	snapshot = controller.Tick(now.Add(121*time.Second), 2000, true)

	// THEN only the accumulator clears, the daily total remains
	assert.Equal(t, time.Duration(0), snapshot.AccumulatedBlowdown)
	assert.Equal(t, 120*time.Second, snapshot.DailyTotal)
}

func TestSamplingTimeDoesNotCountAsBlowdown(t *testing.T) {
	// GIVEN an intermittent cycle that traps a cool sample
	valve := &hal.FakeValve{}
	controller := NewController(
		valve,
		configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
		},
		configuration.SamplingConfig{
			Mode:     configuration.SampleModeIntermittent,
			Interval: time.Hour,
			Duration: 5 * time.Minute,
			HoldTime: time.Minute,
		},
		handTimeout,
	)
	start := time.Now()
	controller.Tick(start, 2000, true)
	sampleStart := start.Add(time.Hour)
	controller.Tick(sampleStart, 2000, true)

	// WHEN the sample is trapped without a blowdown phase
	snapshot := controller.Tick(sampleStart.Add(5*time.Minute), 2000, true)

	// THEN no blowdown time is banked
	assert.Equal(t, StateHolding, snapshot.State)
	assert.Equal(t, time.Duration(0), snapshot.AccumulatedBlowdown)
}
