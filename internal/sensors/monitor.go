package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/boilerctl/boilerctl/internal/util"
)

// Snapshot is the shared view of the boiler measurements, copied out to
// callers so the control loop never sees a half-updated reading.
type Snapshot struct {
	Conductivity float64   `json:"conductivity"`
	CondValid    bool      `json:"condValid"`
	CondTrend    float64   `json:"condTrend"` // µS/cm per minute
	Temperature  float64   `json:"temperature"`
	FlowOK       bool      `json:"flowOk"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Monitor polls the boiler sensors on a fixed rate and maintains the shared
// measurement snapshot.
type Monitor struct {
	conductivity Sensor
	temperature  Sensor
	flow         Sensor

	pollingRate     time.Duration
	avgWindowSize   int
	antiFlashFactor int

	trendWindowSize int
	trendWindow     *rolling.PointPolicy

	mu         sync.RWMutex
	snapshot   Snapshot
	primedCond bool
	primedTemp bool
}

func NewMonitor(
	conductivity Sensor,
	temperature Sensor,
	flow Sensor,
	config configuration.Configuration,
) *Monitor {
	trendWindowSize := config.TrendWindowSize
	if trendWindowSize < 2 {
		trendWindowSize = 2
	}
	return &Monitor{
		conductivity:    conductivity,
		temperature:     temperature,
		flow:            flow,
		pollingRate:     config.MeasurementTickRate,
		avgWindowSize:   config.CondRollingWindowSize,
		antiFlashFactor: config.Sensors.AntiFlashFactor,
		trendWindowSize: trendWindowSize,
		trendWindow:     rolling.NewPointPolicy(rolling.NewWindow(trendWindowSize)),
	}
}

func (m *Monitor) Run(ctx context.Context) error {
	tick := time.Tick(m.pollingRate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			m.poll(time.Now())
		}
	}
}

// Snapshot returns a copy of the current measurement state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *Monitor) poll(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cond, err := m.conductivity.GetValue()
	if err != nil {
		ui.Warning("sensor %s: %v", m.conductivity.GetId(), err)
		m.snapshot.CondValid = false
	} else {
		cond = m.dampen(cond)
		avg := updateAvg(m.conductivity, m.avgWindowSize, cond, m.primedCond)
		m.trendWindow.Append(avg)
		m.snapshot.Conductivity = avg
		m.snapshot.CondTrend = m.trend(avg)
		m.snapshot.CondValid = true
		m.primedCond = true
	}

	temp, err := m.temperature.GetValue()
	if err != nil {
		ui.Warning("sensor %s: %v", m.temperature.GetId(), err)
	} else {
		m.snapshot.Temperature = updateAvg(m.temperature, m.avgWindowSize, temp, m.primedTemp)
		m.primedTemp = true
	}

	flow, err := m.flow.GetValue()
	if err != nil {
		ui.Warning("sensor %s: %v", m.flow.GetId(), err)
		m.snapshot.FlowOK = false
	} else {
		m.snapshot.FlowOK = flow > 0.5
	}

	m.snapshot.UpdatedAt = now
}

// dampen suppresses conductivity spikes caused by the sample flashing to
// steam: only a 1/factor share of a sudden rise is passed through per poll.
func (m *Monitor) dampen(value float64) float64 {
	if m.antiFlashFactor <= 1 || !m.primedCond {
		return value
	}
	previous := m.conductivity.GetMovingAvg()
	if value <= previous {
		return value
	}
	return previous + (value-previous)/float64(m.antiFlashFactor)
}

// trend estimates the conductivity slope in µS/cm per minute. The window
// average lags the live value by half the window span, so the difference
// between the two approximates the slope over that half-span.
func (m *Monitor) trend(value float64) float64 {
	count := m.trendWindow.Reduce(rolling.Count)
	if count < 2 {
		return 0
	}
	windowAvg := m.trendWindow.Reduce(rolling.Avg)
	halfSpanMinutes := (m.pollingRate * time.Duration(count) / 2).Minutes()
	if halfSpanMinutes <= 0 {
		return 0
	}
	return (value - windowAvg) / halfSpanMinutes
}

func updateAvg(sensor Sensor, n int, value float64, primed bool) float64 {
	if !primed || n <= 1 {
		sensor.SetMovingAvg(value)
		return value
	}
	newAvg := util.UpdateSimpleMovingAvg(sensor.GetMovingAvg(), n, value)
	sensor.SetMovingAvg(newAvg)
	return newAvg
}
