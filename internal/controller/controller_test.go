package controller

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/boilerctl/boilerctl/internal/alarms"
	"github.com/boilerctl/boilerctl/internal/blowdown"
	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/hal"
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/boilerctl/boilerctl/internal/persistence"
	"github.com/boilerctl/boilerctl/internal/pumps"
	"github.com/boilerctl/boilerctl/internal/sensors"
	"github.com/boilerctl/boilerctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
)

const handTimeout = 600 * time.Second

// stubMeasurements satisfies MeasurementSource with a fixed snapshot.
type stubMeasurements struct {
	snapshot sensors.Snapshot
}

func (s *stubMeasurements) Snapshot() sensors.Snapshot {
	return s.snapshot
}

func testConfiguration() configuration.Configuration {
	return configuration.Configuration{
		ControlTickRate:      100 * time.Millisecond,
		PersistenceFlushRate: time.Minute,
		Blowdown: configuration.BlowdownConfig{
			Setpoint:  2500,
			Deadband:  50,
			Direction: configuration.DirectionHigh,
			HOA:       configuration.HOAAuto,
		},
		Sampling: configuration.SamplingConfig{
			Mode: configuration.SampleModeContinuous,
		},
		Alarms: configuration.AlarmConfig{
			CondHigh: 3000,
			NoFlow:   true,
		},
	}
}

type fixture struct {
	controller   *Controller
	measurements *stubMeasurements
	valve        *hal.FakeValve
	blowdown     *blowdown.Controller
	pump         *pumps.Pump
	publisher    *telemetry.FakePublisher
}

func newFixture(t *testing.T, pumpConfig configuration.PumpConfig, store persistence.Persistence) *fixture {
	config := testConfiguration()

	valve := &hal.FakeValve{}
	blowdownController := blowdown.NewController(valve, config.Blowdown, config.Sampling, handTimeout)

	drive := hal.NewFakePumpDrive(pumpConfig.ID)
	pump := pumps.NewPump(pumpConfig, drive, handTimeout)
	engine := pumps.NewEngine([]*pumps.Pump{pump})

	measurements := &stubMeasurements{
		snapshot: sensors.Snapshot{Conductivity: 2500, CondValid: true, FlowOK: true},
	}
	publisher := &telemetry.FakePublisher{}

	controller := NewController(
		config,
		measurements,
		blowdownController,
		nil,
		engine,
		[]*meters.Meter{},
		alarms.NewPoller(config.Alarms, config.Blowdown.Setpoint),
		store,
		publisher,
	)

	return &fixture{
		controller:   controller,
		measurements: measurements,
		valve:        valve,
		blowdown:     blowdownController,
		pump:         pump,
		publisher:    publisher,
	}
}

func modeAPumpConfig() configuration.PumpConfig {
	return configuration.PumpConfig{
		ID:             "caustic",
		Enabled:        true,
		Mode:           configuration.FeedModeBlowdownFollow,
		HOA:            configuration.HOAAuto,
		StepsPerMl:     100,
		StepRate:       200,
		BlowdownFollow: &configuration.BlowdownFollowConfig{},
	}
}

func modeBPumpConfig() configuration.PumpConfig {
	return configuration.PumpConfig{
		ID:                "caustic",
		Enabled:           true,
		Mode:              configuration.FeedModePercentOfBlowdown,
		HOA:               configuration.HOAAuto,
		StepsPerMl:        100,
		StepRate:          200,
		PercentOfBlowdown: &configuration.PercentOfBlowdownConfig{Percent: 50},
	}
}

func TestPumpSeesSameTickBlowdownState(t *testing.T) {
	// GIVEN a follow pump and conductivity above the setpoint
	f := newFixture(t, modeAPumpConfig(), nil)
	f.measurements.snapshot.Conductivity = 2600
	now := time.Now()

	// WHEN one control tick runs
	f.controller.tick(now)

	// THEN the valve opened and the pump started within the same tick
	assert.True(t, f.valve.IsOpen())
	assert.True(t, f.pump.Snapshot().Running)
}

func TestBlowdownClaimClearsAccumulator(t *testing.T) {
	// GIVEN a percent-of-blowdown pump
	f := newFixture(t, modeBPumpConfig(), nil)
	now := time.Now()

	// WHEN conductivity forces a 120s blowdown
	f.measurements.snapshot.Conductivity = 2600
	f.controller.tick(now)
	assert.True(t, f.valve.IsOpen())

	f.measurements.snapshot.Conductivity = 2400
	f.controller.tick(now.Add(120 * time.Second))
	assert.False(t, f.valve.IsOpen())

	// THEN the pump claimed the banked time and the accumulator was cleared
	assert.True(t, f.pump.Snapshot().Running)
	assert.Equal(t, time.Duration(0), f.blowdown.Snapshot().AccumulatedBlowdown)

	// AND the feed runs 50% of the blowdown time
	f.controller.tick(now.Add(179 * time.Second))
	assert.True(t, f.pump.Snapshot().Running)
	f.controller.tick(now.Add(181 * time.Second))
	assert.False(t, f.pump.Snapshot().Running)
}

func TestAlarmEdgesArePublished(t *testing.T) {
	// GIVEN
	f := newFixture(t, modeAPumpConfig(), nil)
	now := time.Now()
	f.controller.tick(now)
	assert.Empty(t, f.publisher.Alarms)

	// WHEN flow is lost
	f.measurements.snapshot.FlowOK = false
	f.controller.tick(now.Add(time.Second))

	// THEN the rising edge was published once
	assert.Len(t, f.publisher.Alarms, 1)
	assert.Equal(t, "noFlow", f.publisher.Alarms[0].Name)
	assert.True(t, f.publisher.Alarms[0].Raised)

	f.controller.tick(now.Add(2 * time.Second))
	assert.Len(t, f.publisher.Alarms, 1)
}

func TestDailyTotalRollsOverAtMidnight(t *testing.T) {
	// GIVEN a blowdown that banked time today
	f := newFixture(t, modeAPumpConfig(), nil)
	day1 := time.Date(2026, 8, 23, 23, 50, 0, 0, time.UTC)

	f.measurements.snapshot.Conductivity = 2600
	f.controller.tick(day1)
	f.measurements.snapshot.Conductivity = 2400
	f.controller.tick(day1.Add(60 * time.Second))
	assert.Equal(t, 60*time.Second, f.blowdown.Snapshot().DailyTotal)

	// WHEN the next tick lands after midnight
	f.controller.tick(day1.Add(15 * time.Minute))

	// THEN the daily total started over
	assert.Equal(t, time.Duration(0), f.blowdown.Snapshot().DailyTotal)
}

func TestFlushAndRestoreRoundTrip(t *testing.T) {
	// GIVEN a controller with persistence and some accrued state
	store := persistence.NewPersistence(filepath.Join(t.TempDir(), "boilerctl.db"))
	f := newFixture(t, modeAPumpConfig(), store)
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	f.measurements.snapshot.Conductivity = 2600
	f.controller.tick(now)
	f.measurements.snapshot.Conductivity = 2400
	f.controller.tick(now.Add(90 * time.Second))
	f.controller.flush(now.Add(91 * time.Second))

	// WHEN a fresh controller restores on the same day
	restored := newFixture(t, modeAPumpConfig(), store)
	restored.controller.Restore(now.Add(5 * time.Minute))

	// THEN the daily total survived the restart
	assert.Equal(t, 90*time.Second, restored.blowdown.Snapshot().DailyTotal)

	// WHEN another controller restores on a later day
	nextDay := newFixture(t, modeAPumpConfig(), store)
	nextDay.controller.Restore(now.Add(48 * time.Hour))

	// THEN the stale daily total is not carried over
	assert.Equal(t, time.Duration(0), nextDay.blowdown.Snapshot().DailyTotal)
}

func TestReadingPublishInterval(t *testing.T) {
	// GIVEN a 1 minute publish interval
	f := newFixture(t, modeAPumpConfig(), nil)
	now := time.Now()

	// WHEN ticks run for under a minute
	f.controller.tick(now)
	f.controller.tick(now.Add(10 * time.Second))
	f.controller.tick(now.Add(20 * time.Second))

	// THEN only the first tick published a reading
	assert.Len(t, f.publisher.Readings, 1)

	// WHEN the interval elapses
	f.controller.tick(now.Add(61 * time.Second))

	// THEN a second reading goes out
	assert.Len(t, f.publisher.Readings, 2)
}
