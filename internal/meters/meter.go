// Package meters turns the monotonic pulse counters of the water meters into
// per-tick deltas and persistent totalizers. Pulses are accumulated in
// hardware (or the hal fake), so a slow poll never loses contacts.
package meters

import (
	"fmt"
	"sync"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/hal"
)

// Delta is what one meter measured between two polls.
type Delta struct {
	Contacts uint64  `json:"contacts"`
	Volume   float64 `json:"volume"` // liters
}

type Meter struct {
	Config configuration.MeterConfig

	counter hal.PulseCounter

	mu            sync.Mutex
	lastCount     uint64
	primed        bool
	totalContacts uint64
	totalVolume   float64
}

func NewMeter(config configuration.MeterConfig, counter hal.PulseCounter) *Meter {
	return &Meter{
		Config:  config,
		counter: counter,
	}
}

func (m *Meter) GetId() string {
	return m.Config.ID
}

// Poll reads the pulse counter and returns the contacts and volume since the
// previous poll. The first poll primes the baseline and returns a zero delta.
func (m *Meter) Poll() (Delta, error) {
	count, err := m.counter.Count()
	if err != nil {
		return Delta{}, fmt.Errorf("meter %s: %s", m.GetId(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.primed {
		m.lastCount = count
		m.primed = true
		return Delta{}, nil
	}

	// counter is monotonic, a smaller value means the source restarted
	var contacts uint64
	if count >= m.lastCount {
		contacts = count - m.lastCount
	}
	m.lastCount = count

	delta := Delta{
		Contacts: contacts,
		Volume:   float64(contacts) * m.volumePerPulse(),
	}
	m.totalContacts += delta.Contacts
	m.totalVolume += delta.Volume
	return delta, nil
}

func (m *Meter) volumePerPulse() float64 {
	switch m.Config.Type {
	case configuration.MeterTypePaddlewheel:
		if m.Config.KFactor > 0 {
			return 1 / m.Config.KFactor
		}
		return 0
	default:
		return m.Config.VolumePerContact
	}
}

// Totals returns the lifetime contact count and volume in liters.
func (m *Meter) Totals() (uint64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalContacts, m.totalVolume
}

// RestoreTotals seeds the totalizers from persisted state.
func (m *Meter) RestoreTotals(contacts uint64, volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalContacts = contacts
	m.totalVolume = volume
}
