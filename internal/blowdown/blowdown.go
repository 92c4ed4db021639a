// Package blowdown drives the boiler surface blowdown valve. A single
// controller owns the valve and advances its state machine once per control
// tick, fed with the latest conductivity reading and the flow interlock.
package blowdown

import (
	"sync"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/hal"
	"github.com/boilerctl/boilerctl/internal/ui"
)

type State string

const (
	StateIdle         State = "idle"
	StateValveOpening State = "valveOpening"
	StateBlowingDown  State = "blowingDown"
	StateValveClosing State = "valveClosing"
	StateSampling     State = "sampling"
	StateHolding      State = "holding"
	StateWaiting      State = "waiting"
	StateTimeout      State = "timeout"
	StateError        State = "error"
)

// Snapshot is a copy of the controller state, safe to hand to other
// goroutines.
type Snapshot struct {
	State               State                 `json:"state"`
	HOA                 configuration.HOAMode `json:"hoa"`
	ValveOpen           bool                  `json:"valveOpen"`
	Conductivity        float64               `json:"conductivity"`
	TrappedSample       float64               `json:"trappedSample"`
	CurrentBlowdown     time.Duration         `json:"currentBlowdown"`
	AccumulatedBlowdown time.Duration         `json:"accumulatedBlowdown"`
	DailyTotal          time.Duration         `json:"dailyTotal"`
	TimeoutLatched      bool                  `json:"timeoutLatched"`
	LastError           string                `json:"lastError,omitempty"`
}

// Active reports whether a blowdown is in progress or about to start.
func (s Snapshot) Active() bool {
	return s.ValveOpen || s.State == StateBlowingDown || s.State == StateValveOpening
}

type Controller struct {
	valve       hal.Valve
	config      configuration.BlowdownConfig
	sampling    configuration.SamplingConfig
	handTimeout time.Duration

	mu      sync.Mutex
	started bool

	state     State
	hoa       configuration.HOAMode
	valveOpen bool

	// ball valve travel
	valveTargetOpen  bool
	valveActionStart time.Time
	pendingState     State

	handStart time.Time

	blowdownStart time.Time
	intervalTimer time.Time
	durationTimer time.Time
	holdTimer     time.Time
	propTime      time.Duration

	currentBlowdown time.Duration
	accumulated     time.Duration
	dailyTotal      time.Duration
	trappedSample   float64

	timeoutLatched  bool
	waitingForReset bool

	lastConductivity float64
	lastError        string
}

func NewController(
	valve hal.Valve,
	config configuration.BlowdownConfig,
	sampling configuration.SamplingConfig,
	handTimeout time.Duration,
) *Controller {
	hoa := config.HOA
	if hoa == "" {
		hoa = configuration.HOAAuto
	}
	return &Controller{
		valve:       valve,
		config:      config,
		sampling:    sampling,
		handTimeout: handTimeout,
		state:       StateIdle,
		hoa:         hoa,
	}
}

// Tick advances the state machine. It is the only place the valve is
// commanded from, so all transitions are a function of (state, now, inputs).
func (c *Controller) Tick(now time.Time, conductivity float64, flowOK bool) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastConductivity = conductivity
	if !c.started {
		c.started = true
		c.intervalTimer = now
	}

	// no-flow protection overrides everything, including hand mode
	if !flowOK {
		if c.state == StateValveClosing {
			c.checkValveTravel(now)
		} else if c.valveOpen || c.state == StateValveOpening {
			c.close(now, StateIdle)
		}
		return c.snapshot(now)
	}

	// a moving ball valve finishes its travel before anything else acts on it
	if c.state == StateValveOpening || c.state == StateValveClosing {
		c.checkValveTravel(now)
		return c.snapshot(now)
	}

	c.processHOA(now)
	if c.hoa != configuration.HOAAuto {
		return c.snapshot(now)
	}

	switch c.sampling.Mode {
	case configuration.SampleModeIntermittent:
		c.processIntermittent(now, conductivity)
	case configuration.SampleModeTimed:
		c.processTimed(now, conductivity)
	case configuration.SampleModeProportional:
		c.processProportional(now, conductivity)
	default:
		c.processContinuous(now, conductivity)
	}

	c.checkTimeout(now)

	return c.snapshot(now)
}

// SetHOA switches the hand-off-auto mode. The new mode takes effect on the
// next tick.
func (c *Controller) SetHOA(mode configuration.HOAMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hoa = mode
	c.handStart = time.Time{}
}

func (c *Controller) GetHOA() configuration.HOAMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hoa
}

// ResetTimeout clears a latched blowdown timeout and re-enables automatic
// control.
func (c *Controller) ResetTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeoutLatched = false
	c.waitingForReset = false
	if c.state == StateTimeout || c.state == StateError {
		c.state = StateIdle
	}
}

// ClearAccumulated resets the blowdown time bank after the feed engine has
// claimed it.
func (c *Controller) ClearAccumulated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accumulated = 0
}

// ResetDailyTotal starts a new daily blowdown total.
func (c *Controller) ResetDailyTotal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyTotal = 0
}

// RestoreDailyTotal seeds the daily total from persisted state.
func (c *Controller) RestoreDailyTotal(total time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyTotal = total
}

// RestoreAccumulated seeds the blowdown time bank from persisted state.
func (c *Controller) RestoreAccumulated(total time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accumulated = total
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(time.Now())
}

func (c *Controller) snapshot(now time.Time) Snapshot {
	current := c.currentBlowdown
	if c.state == StateBlowingDown {
		current = now.Sub(c.blowdownStart)
	}
	return Snapshot{
		State:               c.state,
		HOA:                 c.hoa,
		ValveOpen:           c.valveOpen,
		Conductivity:        c.lastConductivity,
		TrappedSample:       c.trappedSample,
		CurrentBlowdown:     current,
		AccumulatedBlowdown: c.accumulated,
		DailyTotal:          c.dailyTotal,
		TimeoutLatched:      c.timeoutLatched,
		LastError:           c.lastError,
	}
}

func (c *Controller) processHOA(now time.Time) {
	switch c.hoa {
	case configuration.HOAHand:
		if !c.valveOpen {
			c.handStart = now
			c.open(now, StateBlowingDown)
		} else {
			if c.handStart.IsZero() {
				// valve was already open when hand was selected
				c.handStart = now
			}
			if now.Sub(c.handStart) >= c.handTimeout {
				c.close(now, StateIdle)
				c.hoa = configuration.HOAAuto
			}
		}
	case configuration.HOAOff:
		if c.valveOpen {
			c.close(now, StateIdle)
		}
	}
}

func (c *Controller) processContinuous(now time.Time, conductivity float64) {
	if c.waitingForReset {
		return
	}

	setpoint := c.config.Setpoint
	deadband := c.config.Deadband

	if c.config.Direction == configuration.DirectionLow {
		// blowdown when BELOW setpoint
		if conductivity < setpoint && !c.valveOpen {
			c.open(now, StateBlowingDown)
		} else if conductivity > setpoint+deadband && c.valveOpen {
			c.close(now, StateIdle)
		}
		return
	}

	// blowdown when ABOVE setpoint
	if conductivity > setpoint && !c.valveOpen {
		c.open(now, StateBlowingDown)
	} else if conductivity < setpoint-deadband && c.valveOpen {
		c.close(now, StateIdle)
	}
}

func (c *Controller) processIntermittent(now time.Time, conductivity float64) {
	if c.waitingForReset {
		return
	}

	setpoint := c.config.Setpoint

	switch c.state {
	case StateIdle, StateWaiting, StateError:
		if now.Sub(c.intervalTimer) >= c.sampling.Interval {
			c.intervalTimer = now
			c.durationTimer = now
			c.open(now, StateSampling)
		}

	case StateSampling:
		if now.Sub(c.durationTimer) >= c.sampling.Duration {
			if conductivity > setpoint {
				// sample is hot, keep blowing until it drops below setpoint
				c.blowdownStart = now
				c.state = StateBlowingDown
			} else {
				c.trappedSample = conductivity
				c.holdTimer = now
				c.close(now, StateHolding)
			}
		}

	case StateBlowingDown:
		if conductivity < setpoint {
			c.trappedSample = conductivity
			c.holdTimer = now
			c.close(now, StateHolding)
		}

	case StateHolding:
		if now.Sub(c.holdTimer) >= c.sampling.HoldTime {
			if conductivity > setpoint {
				// still high, draw a fresh sample right away
				c.durationTimer = now
				c.open(now, StateSampling)
			} else {
				c.state = StateWaiting
			}
		}
	}
}

func (c *Controller) processTimed(now time.Time, conductivity float64) {
	if c.waitingForReset {
		return
	}

	switch c.state {
	case StateIdle, StateWaiting, StateError:
		if now.Sub(c.intervalTimer) >= c.sampling.Interval {
			c.intervalTimer = now
			c.durationTimer = now
			c.open(now, StateSampling)
		}

	case StateSampling:
		if now.Sub(c.durationTimer) >= c.sampling.Duration {
			c.trappedSample = conductivity
			c.holdTimer = now
			c.close(now, StateHolding)
		}

	case StateHolding:
		if now.Sub(c.holdTimer) >= c.sampling.HoldTime {
			if conductivity > c.config.Setpoint {
				c.propTime = c.sampling.BlowTime
				c.open(now, StateBlowingDown)
			} else {
				c.state = StateWaiting
			}
		}

	case StateBlowingDown:
		if now.Sub(c.blowdownStart) >= c.propTime {
			c.holdTimer = now
			c.close(now, StateHolding)
		}
	}
}

func (c *Controller) processProportional(now time.Time, conductivity float64) {
	if c.waitingForReset {
		return
	}

	switch c.state {
	case StateIdle, StateWaiting, StateError:
		if now.Sub(c.intervalTimer) >= c.sampling.Interval {
			c.intervalTimer = now
			c.durationTimer = now
			c.open(now, StateSampling)
		}

	case StateSampling:
		if now.Sub(c.durationTimer) >= c.sampling.Duration {
			c.trappedSample = conductivity
			c.holdTimer = now
			c.close(now, StateHolding)
		}

	case StateHolding:
		if now.Sub(c.holdTimer) >= c.sampling.HoldTime {
			if conductivity > c.config.Setpoint {
				c.propTime = proportionalBlowdownTime(
					conductivity, c.config.Setpoint, c.sampling.PropBand, c.sampling.MaxPropTime)
				c.open(now, StateBlowingDown)
			} else {
				c.state = StateWaiting
			}
		}

	case StateBlowingDown:
		if now.Sub(c.blowdownStart) >= c.propTime {
			c.holdTimer = now
			c.close(now, StateHolding)
		}
	}
}

// proportionalBlowdownTime maps the deviation above the setpoint onto
// [0, maxPropTime], saturating at a full proportional band.
func proportionalBlowdownTime(conductivity float64, setpoint float64, propBand float64, maxPropTime time.Duration) time.Duration {
	deviation := conductivity - setpoint
	if deviation <= 0 || propBand <= 0 {
		return 0
	}
	percentage := deviation / propBand
	if percentage > 1.0 {
		percentage = 1.0
	}
	return time.Duration(percentage * float64(maxPropTime))
}

// open commands the valve open and enters next once the valve is there.
func (c *Controller) open(now time.Time, next State) {
	if err := c.valve.Open(); err != nil {
		ui.Warning("blowdown: valve open failed: %v", err)
		c.lastError = err.Error()
		c.state = StateError
		return
	}
	c.lastError = ""

	if c.config.BallValveDelay > 0 {
		c.valveTargetOpen = true
		c.valveActionStart = now
		c.pendingState = next
		c.state = StateValveOpening
		return
	}

	c.valveOpen = true
	c.enterOpenState(now, next)
}

// close commands the valve closed, banking blowdown time on the way out.
func (c *Controller) close(now time.Time, next State) {
	if err := c.valve.Close(); err != nil {
		ui.Warning("blowdown: valve close failed: %v", err)
		c.lastError = err.Error()
		c.state = StateError
		return
	}
	c.lastError = ""

	if c.state == StateBlowingDown {
		elapsed := now.Sub(c.blowdownStart)
		c.currentBlowdown = elapsed
		c.accumulated += elapsed
		c.dailyTotal += elapsed
	}

	if c.config.BallValveDelay > 0 {
		c.valveTargetOpen = false
		c.valveActionStart = now
		c.pendingState = next
		c.state = StateValveClosing
		return
	}

	c.valveOpen = false
	c.state = next
}

func (c *Controller) enterOpenState(now time.Time, next State) {
	if next == StateBlowingDown {
		c.blowdownStart = now
		c.currentBlowdown = 0
	}
	c.state = next
}

func (c *Controller) checkValveTravel(now time.Time) {
	if now.Sub(c.valveActionStart) < c.config.BallValveDelay {
		return
	}
	c.valveOpen = c.valveTargetOpen
	if c.valveTargetOpen {
		c.enterOpenState(now, c.pendingState)
	} else {
		c.state = c.pendingState
	}
}

func (c *Controller) checkTimeout(now time.Time) {
	if c.config.TimeLimit == 0 || c.state != StateBlowingDown {
		return
	}
	if now.Sub(c.blowdownStart) >= c.config.TimeLimit {
		c.close(now, StateTimeout)
		c.timeoutLatched = true
		c.waitingForReset = true
		ui.Warning("blowdown: time limit of %s exceeded, automatic control suspended until reset", c.config.TimeLimit)
	}
}
