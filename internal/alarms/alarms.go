// Package alarms evaluates the alarm bitmask once per control tick and
// tracks rising and falling edges for telemetry.
package alarms

import (
	"strings"
	"sync"
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/ui"
)

type Alarm uint32

const (
	AlarmCondHigh Alarm = 1 << iota
	AlarmCondLow
	AlarmNoFlow
	AlarmSensorError
	AlarmBlowdownTimeout
	AlarmPumpLockout
)

var alarmNames = map[Alarm]string{
	AlarmCondHigh:        "condHigh",
	AlarmCondLow:         "condLow",
	AlarmNoFlow:          "noFlow",
	AlarmSensorError:     "sensorError",
	AlarmBlowdownTimeout: "blowdownTimeout",
	AlarmPumpLockout:     "pumpLockout",
}

func (a Alarm) String() string {
	if name, ok := alarmNames[a]; ok {
		return name
	}

	var names []string
	for bit, name := range alarmNames {
		if a&bit != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Names returns the active alarm names in a stable order.
func (a Alarm) Names() []string {
	names := []string{}
	for _, bit := range []Alarm{
		AlarmCondHigh, AlarmCondLow, AlarmNoFlow,
		AlarmSensorError, AlarmBlowdownTimeout, AlarmPumpLockout,
	} {
		if a&bit != 0 {
			names = append(names, alarmNames[bit])
		}
	}
	return names
}

// Inputs is the system state the alarm conditions are derived from.
type Inputs struct {
	Conductivity    float64
	CondValid       bool
	FlowOK          bool
	BlowdownTimeout bool
	PumpLockedOut   bool
}

// Edge is one alarm transition.
type Edge struct {
	Alarm  Alarm     `json:"alarm"`
	Name   string    `json:"name"`
	Raised bool      `json:"raised"`
	At     time.Time `json:"at"`
}

type Poller struct {
	config   configuration.AlarmConfig
	setpoint float64

	mu     sync.Mutex
	active Alarm
	since  map[Alarm]time.Time
}

// NewPoller creates an alarm poller. The blowdown setpoint anchors the
// percent-of-setpoint conductivity thresholds.
func NewPoller(config configuration.AlarmConfig, setpoint float64) *Poller {
	return &Poller{
		config:   config,
		setpoint: setpoint,
		since:    map[Alarm]time.Time{},
	}
}

// Poll evaluates all alarm conditions and returns the transitions since the
// last poll.
func (p *Poller) Poll(now time.Time, inputs Inputs) []Edge {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.evaluate(inputs)

	var edges []Edge
	raised := current &^ p.active
	cleared := p.active &^ current

	for bit, name := range alarmNames {
		if raised&bit != 0 {
			p.since[bit] = now
			edges = append(edges, Edge{Alarm: bit, Name: name, Raised: true, At: now})
			ui.Warning("alarm raised: %s", name)
		}
		if cleared&bit != 0 {
			delete(p.since, bit)
			edges = append(edges, Edge{Alarm: bit, Name: name, Raised: false, At: now})
			ui.Info("alarm cleared: %s", name)
		}
	}

	p.active = current
	return edges
}

func (p *Poller) evaluate(inputs Inputs) Alarm {
	var active Alarm

	high, low := p.thresholds()
	if inputs.CondValid {
		if high > 0 && inputs.Conductivity > high {
			active |= AlarmCondHigh
		}
		if low > 0 && inputs.Conductivity < low {
			active |= AlarmCondLow
		}
	}

	if p.config.NoFlow && !inputs.FlowOK {
		active |= AlarmNoFlow
	}
	if p.config.SensorError && !inputs.CondValid {
		active |= AlarmSensorError
	}
	if p.config.BlowdownTimeout && inputs.BlowdownTimeout {
		active |= AlarmBlowdownTimeout
	}
	if p.config.PumpLockout && inputs.PumpLockedOut {
		active |= AlarmPumpLockout
	}

	return active
}

// thresholds resolves the conductivity limits, either absolute or as a
// percentage of the blowdown setpoint.
func (p *Poller) thresholds() (high float64, low float64) {
	high = p.config.CondHigh
	low = p.config.CondLow
	if p.config.UsePercent {
		high = p.setpoint * p.config.CondHigh / 100.0
		low = p.setpoint * p.config.CondLow / 100.0
	}
	return high, low
}

// Active returns the current alarm bitmask.
func (p *Poller) Active() Alarm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// ActiveSince returns when the given alarm was raised.
func (p *Poller) ActiveSince(alarm Alarm) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	since, ok := p.since[alarm]
	return since, ok
}
