// Package pumps runs the chemical metering pumps. Each pump owns a stepper
// drive and advances once per control tick; the feed modes decide when and
// how long it runs, the runtime state machine enforces limits and operator
// overrides.
package pumps

import (
	"sync"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/hal"
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/robfig/cron/v3"
)

type PumpState string

const (
	StateIdle        PumpState = "idle"
	StateRunning     PumpState = "running"
	StatePriming     PumpState = "priming"
	StateCalibrating PumpState = "calibrating"
	StateLockedOut   PumpState = "lockedOut"
	StateError       PumpState = "error"
)

// Inputs is everything the feed modes may react to in one tick.
type Inputs struct {
	BlowdownActive      bool
	AccumulatedBlowdown time.Duration
	// MeterDeltas holds what each water meter measured since the last tick.
	MeterDeltas map[string]meters.Delta
	// FuzzyRates holds the advisory dosing rates in percent, keyed by
	// output name (caustic, sulfite, acid).
	FuzzyRates map[string]float64
}

// Snapshot is a copy of one pump's state.
type Snapshot struct {
	ID      string                `json:"id"`
	State   PumpState             `json:"state"`
	HOA     configuration.HOAMode `json:"hoa"`
	Enabled bool                  `json:"enabled"`
	Running bool                  `json:"running"`

	Runtime         time.Duration `json:"runtime"`
	TotalRuntime    time.Duration `json:"totalRuntime"`
	TotalSteps      uint64        `json:"totalSteps"`
	VolumeDispensed float64       `json:"volumeDispensed"` // ml
	AccumulatedFeed time.Duration `json:"accumulatedFeed"`
	LockoutUntil    time.Time     `json:"lockoutUntil,omitempty"`
	LastError       string        `json:"lastError,omitempty"`

	// ClaimedBlowdown is set on the tick a percent-of-blowdown feed
	// consumed the banked blowdown time.
	ClaimedBlowdown bool `json:"-"`
}

type Pump struct {
	Config configuration.PumpConfig

	drive       hal.PumpDrive
	handTimeout time.Duration
	schedule    cron.Schedule

	mu      sync.Mutex
	enabled bool
	hoa     configuration.HOAMode
	state   PumpState
	running bool

	startTime time.Time
	runtime   time.Duration

	timeLimited  bool
	targetTime   time.Duration
	stepsLimited bool
	targetSteps  uint64
	runSteps     uint64

	totalRuntime    time.Duration
	totalSteps      uint64
	volumeDispensed float64

	stepsBaseline uint64
	stepsPrimed   bool
	lastTick      time.Time

	lockoutEnd time.Time
	handStart  time.Time
	lastError  string

	// feed mode state
	modeAWasBlowing     bool
	modeBAccumulated    time.Duration
	modeBClaimed        bool
	modeCCycleStart     time.Time
	contactCount        uint64
	accumulatedVolume   float64
	accumulatedFeedTime time.Duration
	scheduleNext        time.Time
	scheduleLockoutEnd  time.Time
	fuzzyCycleStart     time.Time
}

func NewPump(config configuration.PumpConfig, drive hal.PumpDrive, handTimeout time.Duration) *Pump {
	hoa := config.HOA
	if hoa == "" {
		hoa = configuration.HOAAuto
	}

	pump := &Pump{
		Config:      config,
		drive:       drive,
		handTimeout: handTimeout,
		enabled:     config.Enabled,
		hoa:         hoa,
		state:       StateIdle,
	}

	if config.Schedule != nil {
		schedule, err := cron.ParseStandard(config.Schedule.Cron)
		if err != nil {
			ui.Warning("pump %s: invalid cron spec '%s': %v", config.ID, config.Schedule.Cron, err)
		} else {
			pump.schedule = schedule
		}
	}

	if steps, err := drive.Steps(); err == nil {
		pump.stepsBaseline = steps
		pump.stepsPrimed = true
	}

	return pump
}

func (p *Pump) GetId() string {
	return p.Config.ID
}

// Tick advances the pump by one control tick.
func (p *Pump) Tick(now time.Time, inputs Inputs) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.modeBClaimed = false
	p.updateStats(now)

	if p.enabled {
		p.accumulate(inputs)
	}

	p.processHOA(now)

	if p.enabled && p.hoa == configuration.HOAAuto {
		p.processFeedMode(now, inputs)
	}

	p.checkRunTargets(now)
	p.checkTimeout(now)

	p.lastTick = now
	return p.snapshot(now)
}

func (p *Pump) SetHOA(mode configuration.HOAMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hoa = mode
	p.handStart = time.Time{}
}

func (p *Pump) GetHOA() configuration.HOAMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hoa
}

func (p *Pump) SetEnabled(now time.Time, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	if !enabled && p.running {
		p.stop(now)
	}
}

// Prime runs the pump for the configured prime duration, ignoring feed modes.
func (p *Pump) Prime(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.running {
		return
	}
	if p.start(now, p.Config.PrimeDuration, 0) {
		p.state = StatePriming
	}
}

// Calibrate dispenses the configured calibration volume so the measured
// output can be compared against it.
func (p *Pump) Calibrate(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.running {
		return
	}
	if p.start(now, 0, p.Config.CalibrationVolume) {
		p.state = StateCalibrating
	}
}

// SetCalibration updates the steps-per-ml factor after a calibration run.
func (p *Pump) SetCalibration(stepsPerMl float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stepsPerMl > 0 {
		p.Config.StepsPerMl = stepsPerMl
	}
}

// ResetLockout clears a runtime-limit lockout.
func (p *Pump) ResetLockout() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateLockedOut {
		p.state = StateIdle
		p.lockoutEnd = time.Time{}
	}
}

// Stop halts the pump immediately.
func (p *Pump) Stop(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.stop(now)
	}
}

// ResetStats clears the lifetime counters.
func (p *Pump) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totalRuntime = 0
	p.totalSteps = 0
	p.volumeDispensed = 0
}

// RestoreStats seeds the lifetime counters from persisted state.
func (p *Pump) RestoreStats(totalRuntime time.Duration, totalSteps uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totalRuntime = totalRuntime
	p.totalSteps = totalSteps
	if p.Config.StepsPerMl > 0 {
		p.volumeDispensed = float64(totalSteps) / p.Config.StepsPerMl
	}
}

func (p *Pump) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot(time.Now())
}

func (p *Pump) snapshot(now time.Time) Snapshot {
	runtime := p.runtime
	if p.running {
		runtime = now.Sub(p.startTime)
	}
	return Snapshot{
		ID:              p.Config.ID,
		State:           p.state,
		HOA:             p.hoa,
		Enabled:         p.enabled,
		Running:         p.running,
		Runtime:         runtime,
		TotalRuntime:    p.totalRuntime,
		TotalSteps:      p.totalSteps,
		VolumeDispensed: p.volumeDispensed,
		AccumulatedFeed: p.accumulatedFeedTime,
		LockoutUntil:    p.lockoutEnd,
		LastError:       p.lastError,
		ClaimedBlowdown: p.modeBClaimed,
	}
}

func (p *Pump) processHOA(now time.Time) {
	switch p.hoa {
	case configuration.HOAHand:
		if !p.running {
			p.handStart = now
			p.start(now, p.handTimeout, 0)
		} else {
			if p.handStart.IsZero() {
				p.handStart = now
			}
			if now.Sub(p.handStart) >= p.handTimeout {
				p.stop(now)
				p.hoa = configuration.HOAAuto
			}
		}
	case configuration.HOAOff:
		if p.running {
			p.stop(now)
		}
	}
}

// start begins a run, limited by duration, by volume, or by neither.
// It reports whether the pump actually started.
func (p *Pump) start(now time.Time, duration time.Duration, volumeMl float64) bool {
	if !p.enabled {
		return false
	}

	if p.state == StateLockedOut {
		if now.Before(p.lockoutEnd) {
			return false
		}
		p.state = StateIdle
	}

	if err := p.drive.Start(p.Config.StepRate); err != nil {
		ui.Warning("pump %s: drive start failed: %v", p.Config.ID, err)
		p.lastError = err.Error()
		p.state = StateError
		return false
	}
	p.lastError = ""

	p.state = StateRunning
	p.running = true
	p.startTime = now
	p.runtime = 0
	p.runSteps = 0

	if volumeMl > 0 && p.Config.StepsPerMl > 0 {
		p.targetSteps = uint64(volumeMl * p.Config.StepsPerMl)
		p.stepsLimited = true
	} else {
		p.stepsLimited = false
	}

	if duration > 0 {
		p.targetTime = duration
		p.timeLimited = true
	} else {
		p.timeLimited = false
	}

	ui.Debug("pump %s: started (duration=%s, volume=%.2f ml)", p.Config.ID, duration, volumeMl)
	return true
}

func (p *Pump) stop(now time.Time) {
	if err := p.drive.Stop(); err != nil {
		ui.Warning("pump %s: drive stop failed: %v", p.Config.ID, err)
		p.lastError = err.Error()
	}

	p.running = false
	p.runtime = now.Sub(p.startTime)

	switch p.state {
	case StateRunning, StatePriming, StateCalibrating:
		p.state = StateIdle
	}

	ui.Debug("pump %s: stopped (ran for %s)", p.Config.ID, p.runtime)
}

func (p *Pump) checkRunTargets(now time.Time) {
	if !p.running {
		return
	}

	if p.stepsLimited && p.runSteps >= p.targetSteps {
		p.stop(now)
		return
	}

	if p.timeLimited && now.Sub(p.startTime) >= p.targetTime {
		p.stop(now)
	}
}

// checkTimeout locks the pump out when a single run exceeds the time limit.
func (p *Pump) checkTimeout(now time.Time) {
	if p.Config.TimeLimit <= 0 || !p.running {
		return
	}

	if now.Sub(p.startTime) >= p.Config.TimeLimit {
		p.stop(now)
		p.state = StateLockedOut
		p.lockoutEnd = now.Add(p.Config.LockoutDuration)
		ui.Warning("pump %s: run exceeded time limit of %s, locked out", p.Config.ID, p.Config.TimeLimit)
	}
}

// updateStats banks step and runtime deltas since the previous tick.
func (p *Pump) updateStats(now time.Time) {
	steps, err := p.drive.Steps()
	if err == nil {
		if p.stepsPrimed && steps >= p.stepsBaseline {
			delta := steps - p.stepsBaseline
			p.totalSteps += delta
			p.runSteps += delta
			if p.Config.StepsPerMl > 0 {
				p.volumeDispensed = float64(p.totalSteps) / p.Config.StepsPerMl
			}
		}
		p.stepsBaseline = steps
		p.stepsPrimed = true
	}

	if p.running && !p.lastTick.IsZero() {
		p.totalRuntime += now.Sub(p.lastTick)
	}
}
