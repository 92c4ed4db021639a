package pumps

import (
	"time"

	"github.com/boilerctl/boilerctl/internal/ui"
)

// Engine ticks all configured pumps and exposes them to the API.
type Engine struct {
	pumps []*Pump
}

func NewEngine(pumps []*Pump) *Engine {
	return &Engine{pumps: pumps}
}

// Tick advances every pump. The returned claimed flag is set when a
// percent-of-blowdown pump consumed the banked blowdown time; the caller
// then clears the blowdown controller's accumulator.
func (e *Engine) Tick(now time.Time, inputs Inputs) (snapshots []Snapshot, claimed bool) {
	snapshots = make([]Snapshot, 0, len(e.pumps))
	for _, pump := range e.pumps {
		snapshot := pump.Tick(now, inputs)
		claimed = claimed || snapshot.ClaimedBlowdown
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, claimed
}

// Pump returns the pump with the given id, or nil.
func (e *Engine) Pump(id string) *Pump {
	for _, pump := range e.pumps {
		if pump.GetId() == id {
			return pump
		}
	}
	return nil
}

// Pumps returns all managed pumps.
func (e *Engine) Pumps() []*Pump {
	return e.pumps
}

// Snapshots returns the current state of all pumps.
func (e *Engine) Snapshots() []Snapshot {
	snapshots := make([]Snapshot, 0, len(e.pumps))
	for _, pump := range e.pumps {
		snapshots = append(snapshots, pump.Snapshot())
	}
	return snapshots
}

// AnyLockedOut reports whether any pump is in runtime-limit lockout.
func (e *Engine) AnyLockedOut() bool {
	for _, pump := range e.pumps {
		if pump.Snapshot().State == StateLockedOut {
			return true
		}
	}
	return false
}

// StopAll halts every pump immediately.
func (e *Engine) StopAll(now time.Time) {
	ui.Warning("stopping all chemical pumps")
	for _, pump := range e.pumps {
		pump.Stop(now)
	}
}
