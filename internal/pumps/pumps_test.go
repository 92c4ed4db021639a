package pumps

import (
	"testing"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/hal"
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/stretchr/testify/assert"
)

const testHandTimeout = 600 * time.Second

func basePumpConfig(id string, mode configuration.FeedMode) configuration.PumpConfig {
	return configuration.PumpConfig{
		ID:         id,
		Enabled:    true,
		Mode:       mode,
		HOA:        configuration.HOAAuto,
		StepsPerMl: 100,
		StepRate:   200,
	}
}

func newTestPump(config configuration.PumpConfig) (*Pump, *hal.FakePumpDrive) {
	drive := hal.NewFakePumpDrive(config.ID)
	return NewPump(config, drive, testHandTimeout), drive
}

func idleInputs() Inputs {
	return Inputs{}
}

func blowdownInputs(accumulated time.Duration) Inputs {
	return Inputs{BlowdownActive: true, AccumulatedBlowdown: accumulated}
}

func TestBlowdownFollowTracksValve(t *testing.T) {
	// GIVEN a pump following the blowdown valve
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{MaxRunTime: 10 * time.Minute}
	pump, drive := newTestPump(config)
	now := time.Now()

	// WHEN the blowdown opens
	snapshot := pump.Tick(now, blowdownInputs(0))

	// THEN the pump runs
	assert.True(t, snapshot.Running)
	assert.True(t, drive.IsRunning())

	// WHEN the blowdown ends
	snapshot = pump.Tick(now.Add(30*time.Second), idleInputs())

	// THEN the pump stops with it
	assert.False(t, snapshot.Running)
	assert.Equal(t, StateIdle, snapshot.State)
}

func TestBlowdownFollowCapsRunTime(t *testing.T) {
	// GIVEN a 60s cap per blowdown
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{MaxRunTime: 60 * time.Second}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN the blowdown stays open past the cap
	pump.Tick(now, blowdownInputs(0))
	snapshot := pump.Tick(now.Add(61*time.Second), blowdownInputs(0))

	// THEN the pump has stopped and does not restart within this blowdown
	assert.False(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(90*time.Second), blowdownInputs(0))
	assert.False(t, snapshot.Running)
}

func TestPercentOfBlowdownFeedsAfterBlowdown(t *testing.T) {
	// GIVEN a pump feeding 50% of blowdown time
	config := basePumpConfig("caustic", configuration.FeedModePercentOfBlowdown)
	config.PercentOfBlowdown = &configuration.PercentOfBlowdownConfig{Percent: 50, MaxTime: 5 * time.Minute}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN 120s of blowdown time have been banked and the blowdown ends
	snapshot := pump.Tick(now, blowdownInputs(120*time.Second))
	assert.False(t, snapshot.Running)

	snapshot = pump.Tick(now.Add(time.Second), idleInputs())

	// THEN the pump runs and the bank is claimed
	assert.True(t, snapshot.Running)
	assert.True(t, snapshot.ClaimedBlowdown)

	// AND the run lasts 60s
	snapshot = pump.Tick(now.Add(60*time.Second), idleInputs())
	assert.True(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(62*time.Second), idleInputs())
	assert.False(t, snapshot.Running)
}

func TestPercentOfBlowdownCapsFeedTime(t *testing.T) {
	// GIVEN a 30s cap
	config := basePumpConfig("caustic", configuration.FeedModePercentOfBlowdown)
	config.PercentOfBlowdown = &configuration.PercentOfBlowdownConfig{Percent: 100, MaxTime: 30 * time.Second}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN an hour of blowdown time was banked
	pump.Tick(now, blowdownInputs(time.Hour))
	snapshot := pump.Tick(now.Add(time.Second), idleInputs())
	assert.True(t, snapshot.Running)

	// THEN the feed still stops after the cap
	snapshot = pump.Tick(now.Add(32*time.Second), idleInputs())
	assert.False(t, snapshot.Running)
}

func TestPercentOfTimeDutyCycle(t *testing.T) {
	// GIVEN 20% (200 in 0.1% units) of a 600s cycle
	config := basePumpConfig("sulfite", configuration.FeedModePercentOfTime)
	config.PercentOfTime = &configuration.PercentOfTimeConfig{Percent: 200, CycleTime: 600 * time.Second}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN inside the first 120s of the cycle
	snapshot := pump.Tick(now, idleInputs())
	assert.True(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(119*time.Second), idleInputs())
	assert.True(t, snapshot.Running)

	// THEN the pump is off for the remaining 480s
	snapshot = pump.Tick(now.Add(121*time.Second), idleInputs())
	assert.False(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(599*time.Second), idleInputs())
	assert.False(t, snapshot.Running)

	// AND the next cycle starts over
	snapshot = pump.Tick(now.Add(601*time.Second), idleInputs())
	assert.True(t, snapshot.Running)
}

func TestWaterContactBanksAndFeeds(t *testing.T) {
	// GIVEN 10s of feed per 5 contacts
	config := basePumpConfig("sulfite", configuration.FeedModeWaterContact)
	config.WaterContact = &configuration.WaterContactConfig{
		Meter:          "makeup",
		ContactDivider: 5,
		TimePerContact: 10 * time.Second,
	}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN only 4 contacts have arrived
	snapshot := pump.Tick(now, Inputs{MeterDeltas: map[string]meters.Delta{"makeup": {Contacts: 4}}})

	// THEN nothing runs yet
	assert.False(t, snapshot.Running)

	// WHEN the fifth contact arrives
	snapshot = pump.Tick(now.Add(time.Second), Inputs{MeterDeltas: map[string]meters.Delta{"makeup": {Contacts: 1}}})

	// THEN the banked 10s run starts
	assert.True(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(12*time.Second), idleInputs())
	assert.False(t, snapshot.Running)
}

func TestWaterContactBankIsCappedAtTimeLimit(t *testing.T) {
	// GIVEN a 30s time limit
	config := basePumpConfig("sulfite", configuration.FeedModeWaterContact)
	config.TimeLimit = 30 * time.Second
	// off keeps the bank from draining into a run while it accrues
	config.HOA = configuration.HOAOff
	config.WaterContact = &configuration.WaterContactConfig{
		Meter:          "makeup",
		ContactDivider: 1,
		TimePerContact: 20 * time.Second,
	}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN contacts bank far more time than the limit
	for i := 0; i < 10; i++ {
		pump.Tick(now.Add(time.Duration(i)*time.Second),
			Inputs{MeterDeltas: map[string]meters.Delta{"makeup": {Contacts: 1}}})
	}

	// THEN the bank never exceeds the limit
	assert.LessOrEqual(t, pump.Snapshot().AccumulatedFeed, 30*time.Second)
}

func TestPaddlewheelBanksPerVolume(t *testing.T) {
	// GIVEN 15s of feed per 100 liters of makeup water
	config := basePumpConfig("sulfite", configuration.FeedModePaddlewheel)
	config.Paddlewheel = &configuration.PaddlewheelConfig{
		Meter:            "makeup",
		VolumeToInitiate: 100,
		TimePerVolume:    15 * time.Second,
	}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN 100 liters have flowed
	snapshot := pump.Tick(now, Inputs{MeterDeltas: map[string]meters.Delta{"makeup": {Volume: 60}}})
	assert.False(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(time.Second), Inputs{MeterDeltas: map[string]meters.Delta{"makeup": {Volume: 40}}})

	// THEN the banked run starts
	assert.True(t, snapshot.Running)
}

func TestScheduledFeedRunsOnceAndLocksOut(t *testing.T) {
	// GIVEN a daily 06:00 feed of 30s with a one hour lockout
	config := basePumpConfig("caustic", configuration.FeedModeScheduled)
	config.Schedule = &configuration.ScheduleConfig{
		Cron:         "0 6 * * *",
		FeedDuration: 30 * time.Second,
		Lockout:      time.Hour,
	}
	pump, _ := newTestPump(config)
	start := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)

	// WHEN ticked before the scheduled time
	snapshot := pump.Tick(start, idleInputs())
	assert.False(t, snapshot.Running)
	snapshot = pump.Tick(start.Add(30*time.Minute), idleInputs())
	assert.False(t, snapshot.Running)

	// WHEN the schedule fires
	feedTime := time.Date(2026, 3, 10, 6, 0, 1, 0, time.UTC)
	snapshot = pump.Tick(feedTime, idleInputs())

	// THEN the pump feeds for the configured duration
	assert.True(t, snapshot.Running)
	snapshot = pump.Tick(feedTime.Add(31*time.Second), idleInputs())
	assert.False(t, snapshot.Running)

	// AND it does not fire again until tomorrow
	snapshot = pump.Tick(feedTime.Add(2*time.Hour), idleInputs())
	assert.False(t, snapshot.Running)
	snapshot = pump.Tick(time.Date(2026, 3, 11, 6, 0, 1, 0, time.UTC), idleInputs())
	assert.True(t, snapshot.Running)
}

func TestFuzzyDrivenDutyCycle(t *testing.T) {
	// GIVEN a pump whose full delivery rate is 120 ml/min and whose
	// MaxRate is 60 ml/min, driven by the caustic recommendation
	config := basePumpConfig("caustic", configuration.FeedModeFuzzy)
	config.Fuzzy = &configuration.FuzzyDrivenConfig{
		Output:    "caustic",
		MaxRate:   60,
		CycleTime: 600 * time.Second,
	}
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN the advisory recommends 50%
	// 50% of 60 ml/min over 120 ml/min = 25% duty = 150s of the cycle
	inputs := Inputs{FuzzyRates: map[string]float64{"caustic": 50}}
	snapshot := pump.Tick(now, inputs)
	assert.True(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(149*time.Second), inputs)
	assert.True(t, snapshot.Running)

	// THEN the pump is off for the rest of the cycle
	snapshot = pump.Tick(now.Add(151*time.Second), inputs)
	assert.False(t, snapshot.Running)
}

func TestFuzzyDrivenZeroRecommendationKeepsPumpOff(t *testing.T) {
	// GIVEN
	config := basePumpConfig("acid", configuration.FeedModeFuzzy)
	config.Fuzzy = &configuration.FuzzyDrivenConfig{Output: "acid", MaxRate: 60, CycleTime: 600 * time.Second}
	pump, _ := newTestPump(config)

	// WHEN the advisory recommends nothing
	snapshot := pump.Tick(time.Now(), Inputs{FuzzyRates: map[string]float64{"acid": 0}})

	// THEN
	assert.False(t, snapshot.Running)
}

func TestHandModeRunsAndTimesOutToAuto(t *testing.T) {
	// GIVEN a pump switched to hand
	config := basePumpConfig("caustic", configuration.FeedModePercentOfTime)
	config.PercentOfTime = &configuration.PercentOfTimeConfig{Percent: 0, CycleTime: 600 * time.Second}
	pump, _ := newTestPump(config)
	pump.SetHOA(configuration.HOAHand)
	now := time.Now()

	// WHEN ticked
	snapshot := pump.Tick(now, idleInputs())

	// THEN the pump runs regardless of the feed mode
	assert.True(t, snapshot.Running)
	assert.Equal(t, configuration.HOAHand, snapshot.HOA)

	// WHEN the hand timeout expires
	snapshot = pump.Tick(now.Add(601*time.Second), idleInputs())

	// THEN the pump reverts to auto
	assert.Equal(t, configuration.HOAAuto, snapshot.HOA)
	assert.False(t, snapshot.Running)
}

func TestHandModePreservesAccumulatedFeed(t *testing.T) {
	// GIVEN a water contact pump with banked feed time, held off by OFF
	config := basePumpConfig("sulfite", configuration.FeedModeWaterContact)
	config.WaterContact = &configuration.WaterContactConfig{
		Meter:          "makeup",
		ContactDivider: 1,
		TimePerContact: 20 * time.Second,
	}
	config.HOA = configuration.HOAOff
	pump, _ := newTestPump(config)
	now := time.Now()

	pump.Tick(now, Inputs{MeterDeltas: map[string]meters.Delta{"makeup": {Contacts: 1}}})
	assert.Equal(t, 20*time.Second, pump.Snapshot().AccumulatedFeed)

	// WHEN the operator bumps through hand and back to auto
	pump.SetHOA(configuration.HOAHand)
	pump.Tick(now.Add(time.Second), idleInputs())
	pump.SetHOA(configuration.HOAAuto)
	pump.Stop(now.Add(2 * time.Second))
	snapshot := pump.Tick(now.Add(3*time.Second), idleInputs())

	// THEN the bank was not lost; the pump runs it down in auto
	assert.True(t, snapshot.Running)
	snapshot = pump.Tick(now.Add(24*time.Second), idleInputs())
	assert.False(t, snapshot.Running)
}

func TestOffModeStopsPump(t *testing.T) {
	// GIVEN a running pump
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	pump, drive := newTestPump(config)
	now := time.Now()
	pump.Tick(now, blowdownInputs(0))
	assert.True(t, drive.IsRunning())

	// WHEN switched off
	pump.SetHOA(configuration.HOAOff)
	snapshot := pump.Tick(now.Add(time.Second), blowdownInputs(0))

	// THEN the pump stops even though the blowdown is active
	assert.False(t, snapshot.Running)
	assert.False(t, drive.IsRunning())
}

func TestTimeLimitLocksOutUntilLockoutExpires(t *testing.T) {
	// GIVEN a 60s run limit with a 10 minute lockout
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	config.TimeLimit = 60 * time.Second
	config.LockoutDuration = 10 * time.Minute
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN the run exceeds the limit
	pump.Tick(now, blowdownInputs(0))
	snapshot := pump.Tick(now.Add(61*time.Second), blowdownInputs(0))

	// THEN the pump locks out
	assert.Equal(t, StateLockedOut, snapshot.State)
	assert.False(t, snapshot.Running)

	// AND stays locked out while the lockout window runs
	snapshot = pump.Tick(now.Add(5*time.Minute), idleInputs())
	snapshot = pump.Tick(now.Add(5*time.Minute+time.Second), blowdownInputs(0))
	assert.Equal(t, StateLockedOut, snapshot.State)
	assert.False(t, snapshot.Running)

	// WHEN the lockout window has passed and a new demand arrives
	pump.Tick(now.Add(12*time.Minute), idleInputs())
	snapshot = pump.Tick(now.Add(12*time.Minute+time.Second), blowdownInputs(0))

	// THEN the pump may run again
	assert.True(t, snapshot.Running)
}

func TestResetLockoutClearsState(t *testing.T) {
	// GIVEN a locked out pump
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	config.TimeLimit = 60 * time.Second
	config.LockoutDuration = time.Hour
	pump, _ := newTestPump(config)
	now := time.Now()
	pump.Tick(now, blowdownInputs(0))
	pump.Tick(now.Add(61*time.Second), blowdownInputs(0))
	assert.Equal(t, StateLockedOut, pump.Snapshot().State)

	// WHEN the operator resets the lockout
	pump.ResetLockout()

	// THEN the pump is idle again
	assert.Equal(t, StateIdle, pump.Snapshot().State)
}

func TestPrimeRunsForPrimeDuration(t *testing.T) {
	// GIVEN
	config := basePumpConfig("caustic", configuration.FeedModePercentOfTime)
	config.PercentOfTime = &configuration.PercentOfTimeConfig{Percent: 0, CycleTime: 600 * time.Second}
	config.PrimeDuration = 30 * time.Second
	pump, _ := newTestPump(config)
	now := time.Now()

	// WHEN primed
	pump.Prime(now)
	snapshot := pump.Tick(now.Add(time.Second), idleInputs())

	// THEN the pump runs in the priming state
	assert.Equal(t, StatePriming, snapshot.State)
	assert.True(t, snapshot.Running)

	// AND stops after the prime duration
	snapshot = pump.Tick(now.Add(31*time.Second), idleInputs())
	assert.False(t, snapshot.Running)
	assert.Equal(t, StateIdle, snapshot.State)
}

func TestCalibrateStopsAtTargetSteps(t *testing.T) {
	// GIVEN a calibration volume of 50 ml at 100 steps/ml
	config := basePumpConfig("caustic", configuration.FeedModePercentOfTime)
	config.PercentOfTime = &configuration.PercentOfTimeConfig{Percent: 0, CycleTime: 600 * time.Second}
	config.CalibrationVolume = 50
	pump, drive := newTestPump(config)
	now := time.Now()

	// WHEN calibrating
	pump.Calibrate(now)
	assert.Equal(t, StateCalibrating, pump.Snapshot().State)

	// AND the drive reports 4000 steps so far
	drive.AdvanceSteps(4000)
	snapshot := pump.Tick(now.Add(20*time.Second), idleInputs())
	assert.True(t, snapshot.Running)

	// WHEN the target of 5000 steps is reached
	drive.AdvanceSteps(1100)
	snapshot = pump.Tick(now.Add(26*time.Second), idleInputs())

	// THEN the run stops
	assert.False(t, snapshot.Running)
}

func TestVolumeAccounting(t *testing.T) {
	// GIVEN 100 steps per ml
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	pump, drive := newTestPump(config)
	now := time.Now()

	// WHEN 2500 steps accrue over two ticks
	pump.Tick(now, blowdownInputs(0))
	drive.AdvanceSteps(1000)
	pump.Tick(now.Add(time.Second), blowdownInputs(0))
	drive.AdvanceSteps(1500)
	snapshot := pump.Tick(now.Add(2*time.Second), blowdownInputs(0))

	// THEN 25 ml are on the books
	assert.Equal(t, uint64(2500), snapshot.TotalSteps)
	assert.InDelta(t, 25.0, snapshot.VolumeDispensed, 0.001)
}

func TestRestoreStatsSeedsLifetimeCounters(t *testing.T) {
	// GIVEN
	config := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	config.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	pump, _ := newTestPump(config)

	// WHEN persisted stats are restored
	pump.RestoreStats(3*time.Hour, 500000)

	// THEN
	snapshot := pump.Snapshot()
	assert.Equal(t, 3*time.Hour, snapshot.TotalRuntime)
	assert.Equal(t, uint64(500000), snapshot.TotalSteps)
	assert.InDelta(t, 5000.0, snapshot.VolumeDispensed, 0.001)
}

func TestEngineReportsBlowdownClaim(t *testing.T) {
	// GIVEN an engine with one percent-of-blowdown pump
	config := basePumpConfig("caustic", configuration.FeedModePercentOfBlowdown)
	config.PercentOfBlowdown = &configuration.PercentOfBlowdownConfig{Percent: 50}
	pump, _ := newTestPump(config)
	engine := NewEngine([]*Pump{pump})
	now := time.Now()

	// WHEN the blowdown ends with banked time
	_, claimed := engine.Tick(now, blowdownInputs(60*time.Second))
	assert.False(t, claimed)
	_, claimed = engine.Tick(now.Add(time.Second), idleInputs())

	// THEN the engine reports the claim exactly once
	assert.True(t, claimed)
	_, claimed = engine.Tick(now.Add(2*time.Second), idleInputs())
	assert.False(t, claimed)
}

func TestEngineStopAll(t *testing.T) {
	// GIVEN two running pumps
	configA := basePumpConfig("caustic", configuration.FeedModeBlowdownFollow)
	configA.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	configB := basePumpConfig("sulfite", configuration.FeedModeBlowdownFollow)
	configB.BlowdownFollow = &configuration.BlowdownFollowConfig{}
	pumpA, driveA := newTestPump(configA)
	pumpB, driveB := newTestPump(configB)
	engine := NewEngine([]*Pump{pumpA, pumpB})
	now := time.Now()
	engine.Tick(now, blowdownInputs(0))
	assert.True(t, driveA.IsRunning())
	assert.True(t, driveB.IsRunning())

	// WHEN
	engine.StopAll(now.Add(time.Second))

	// THEN
	assert.False(t, driveA.IsRunning())
	assert.False(t, driveB.IsRunning())
}
