// Package controller runs the control loop: once per control tick the
// blowdown state machine advances, the fuzzy advisory is re-evaluated and
// the chemical pumps react, strictly in that order so every pump sees the
// blowdown state of the same tick.
package controller

import (
	"context"
	"time"

	"github.com/boilerctl/boilerctl/internal/alarms"
	"github.com/boilerctl/boilerctl/internal/blowdown"
	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/boilerctl/boilerctl/internal/persistence"
	"github.com/boilerctl/boilerctl/internal/pumps"
	"github.com/boilerctl/boilerctl/internal/sensors"
	"github.com/boilerctl/boilerctl/internal/telemetry"
	"github.com/boilerctl/boilerctl/internal/ui"
)

const dateFormat = "2006-01-02"

// MeasurementSource provides the latest sensor snapshot, usually the
// sensors.Monitor.
type MeasurementSource interface {
	Snapshot() sensors.Snapshot
}

type Controller struct {
	config configuration.Configuration

	monitor     MeasurementSource
	blowdown    *blowdown.Controller
	fuzzyEngine *fuzzy.Engine
	pumpEngine  *pumps.Engine
	meters      []*meters.Meter
	alarmPoller *alarms.Poller

	persistence persistence.Persistence
	publisher   telemetry.Publisher

	dailyDate   string
	lastFlush   time.Time
	lastPublish time.Time
}

// NewController wires the control loop. fuzzyEngine, persistence and
// publisher may be nil, the corresponding features are then skipped.
func NewController(
	config configuration.Configuration,
	monitor MeasurementSource,
	blowdownController *blowdown.Controller,
	fuzzyEngine *fuzzy.Engine,
	pumpEngine *pumps.Engine,
	meterList []*meters.Meter,
	alarmPoller *alarms.Poller,
	persistence persistence.Persistence,
	publisher telemetry.Publisher,
) *Controller {
	return &Controller{
		config:      config,
		monitor:     monitor,
		blowdown:    blowdownController,
		fuzzyEngine: fuzzyEngine,
		pumpEngine:  pumpEngine,
		meters:      meterList,
		alarmPoller: alarmPoller,
		persistence: persistence,
		publisher:   publisher,
	}
}

// Restore loads persisted controller state. Errors only mean there is
// nothing persisted yet.
func (c *Controller) Restore(now time.Time) {
	if c.persistence == nil {
		return
	}

	if totals, err := c.persistence.LoadBlowdownTotals(); err == nil {
		if totals.DailyDate == now.Format(dateFormat) {
			c.blowdown.RestoreDailyTotal(totals.DailyTotal)
		}
		c.blowdown.RestoreAccumulated(totals.Accumulated)
	}

	for _, pump := range c.pumpEngine.Pumps() {
		if stats, err := c.persistence.LoadPumpStats(pump.GetId()); err == nil {
			pump.RestoreStats(stats.TotalRuntime, stats.TotalSteps)
		}
	}

	for _, meter := range c.meters {
		if totals, err := c.persistence.LoadMeterTotals(meter.GetId()); err == nil {
			meter.RestoreTotals(totals.Contacts, totals.Volume)
		}
	}

	if c.fuzzyEngine != nil {
		if entries, err := c.persistence.LoadManualInputs(); err == nil {
			for name, entry := range entries {
				if !entry.Valid {
					continue
				}
				input := fuzzy.InputByName(name)
				if input < 0 {
					continue
				}
				if err := c.fuzzyEngine.SetManualInput(input, entry.Value, entry.EnteredAt); err != nil {
					ui.Warning("discarding persisted %s entry: %v", name, err)
				}
			}
		}
	}

	c.dailyDate = now.Format(dateFormat)
}

// Run executes the control loop until the context is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	tick := time.Tick(c.config.ControlTickRate)
	for {
		select {
		case <-ctx.Done():
			ui.Info("Stopping control loop...")
			c.flush(time.Now())
			return nil
		case <-tick:
			c.tick(time.Now())
		}
	}
}

// tick runs one control cycle.
func (c *Controller) tick(now time.Time) {
	measurement := c.monitor.Snapshot()

	// the daily blowdown total rolls over at midnight
	date := now.Format(dateFormat)
	if c.dailyDate == "" {
		c.dailyDate = date
	} else if date != c.dailyDate {
		ui.Info("Daily blowdown total rollover (%s -> %s)", c.dailyDate, date)
		c.blowdown.ResetDailyTotal()
		c.dailyDate = date
	}

	blowSnapshot := c.blowdown.Tick(now, measurement.Conductivity, measurement.FlowOK)

	var rates map[string]float64
	if c.fuzzyEngine != nil {
		result := c.fuzzyEngine.Evaluate(now, fuzzy.Inputs{
			Temperature: measurement.Temperature,
			CondTrend:   measurement.CondTrend,
		})
		rates = map[string]float64{
			"blowdown": result.BlowdownRate,
			"caustic":  result.CausticRate,
			"sulfite":  result.SulfiteRate,
			"acid":     result.AcidRate,
		}
	}

	deltas := map[string]meters.Delta{}
	for _, meter := range c.meters {
		delta, err := meter.Poll()
		if err != nil {
			ui.Warning("meter %s: %v", meter.GetId(), err)
			continue
		}
		deltas[meter.GetId()] = delta
	}

	pumpSnapshots, claimed := c.pumpEngine.Tick(now, pumps.Inputs{
		BlowdownActive:      blowSnapshot.Active(),
		AccumulatedBlowdown: blowSnapshot.AccumulatedBlowdown,
		MeterDeltas:         deltas,
		FuzzyRates:          rates,
	})
	if claimed {
		c.blowdown.ClearAccumulated()
	}

	edges := c.alarmPoller.Poll(now, alarms.Inputs{
		Conductivity:    measurement.Conductivity,
		CondValid:       measurement.CondValid,
		FlowOK:          measurement.FlowOK,
		BlowdownTimeout: blowSnapshot.TimeoutLatched,
		PumpLockedOut:   anyLockedOut(pumpSnapshots),
	})

	c.publish(now, measurement, blowSnapshot, pumpSnapshots, edges)

	if c.persistence != nil &&
		(c.lastFlush.IsZero() || now.Sub(c.lastFlush) >= c.config.PersistenceFlushRate) {
		c.flush(now)
	}
}

func (c *Controller) publish(
	now time.Time,
	measurement sensors.Snapshot,
	blowSnapshot blowdown.Snapshot,
	pumpSnapshots []pumps.Snapshot,
	edges []alarms.Edge,
) {
	if c.publisher == nil {
		return
	}

	for _, edge := range edges {
		if err := c.publisher.PublishAlarm(edge); err != nil {
			ui.Warning("publishing alarm edge: %v", err)
		}
	}

	interval := time.Minute
	if c.config.Mqtt != nil && c.config.Mqtt.Interval > 0 {
		interval = c.config.Mqtt.Interval
	}
	if !c.lastPublish.IsZero() && now.Sub(c.lastPublish) < interval {
		return
	}
	c.lastPublish = now

	reading := telemetry.Reading{
		Timestamp:            now.UTC().Format(time.RFC3339),
		Conductivity:         measurement.Conductivity,
		CondValid:            measurement.CondValid,
		Temperature:          measurement.Temperature,
		FlowOK:               measurement.FlowOK,
		ValveOpen:            blowSnapshot.ValveOpen,
		BlowdownState:        string(blowSnapshot.State),
		DailyBlowdownSeconds: blowSnapshot.DailyTotal.Seconds(),
	}
	for _, snapshot := range pumpSnapshots {
		reading.Pumps = append(reading.Pumps, telemetry.PumpReading{
			ID:              snapshot.ID,
			State:           string(snapshot.State),
			Running:         snapshot.Running,
			VolumeDispensed: snapshot.VolumeDispensed,
		})
	}
	if c.fuzzyEngine != nil {
		result := c.fuzzyEngine.LastResult()
		reading.BlowdownRate = result.BlowdownRate
		reading.CausticRate = result.CausticRate
		reading.SulfiteRate = result.SulfiteRate
		reading.AcidRate = result.AcidRate
	}

	if err := c.publisher.PublishReading(reading); err != nil {
		ui.Warning("publishing reading: %v", err)
	}
}

// flush writes all persistent state to the database.
func (c *Controller) flush(now time.Time) {
	if c.persistence == nil {
		return
	}
	c.lastFlush = now

	blowSnapshot := c.blowdown.Snapshot()
	err := c.persistence.SaveBlowdownTotals(persistence.BlowdownTotals{
		DailyTotal:  blowSnapshot.DailyTotal,
		DailyDate:   now.Format(dateFormat),
		Accumulated: blowSnapshot.AccumulatedBlowdown,
	})
	if err != nil {
		ui.Warning("persisting blowdown totals: %v", err)
	}

	for _, snapshot := range c.pumpEngine.Snapshots() {
		err = c.persistence.SavePumpStats(snapshot.ID, persistence.PumpStats{
			TotalRuntime: snapshot.TotalRuntime,
			TotalSteps:   snapshot.TotalSteps,
		})
		if err != nil {
			ui.Warning("persisting pump %s stats: %v", snapshot.ID, err)
		}
	}

	for _, meter := range c.meters {
		contacts, volume := meter.Totals()
		err = c.persistence.SaveMeterTotals(meter.GetId(), persistence.MeterTotals{
			Contacts: contacts,
			Volume:   volume,
		})
		if err != nil {
			ui.Warning("persisting meter %s totals: %v", meter.GetId(), err)
		}
	}

	if c.fuzzyEngine != nil {
		if err = c.persistence.SaveManualInputs(c.fuzzyEngine.ManualInputs()); err != nil {
			ui.Warning("persisting manual inputs: %v", err)
		}
	}
}

func anyLockedOut(snapshots []pumps.Snapshot) bool {
	for _, snapshot := range snapshots {
		if snapshot.State == pumps.StateLockedOut {
			return true
		}
	}
	return false
}
