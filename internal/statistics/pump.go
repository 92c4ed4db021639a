package statistics

import (
	"github.com/boilerctl/boilerctl/internal/pumps"
	"github.com/prometheus/client_golang/prometheus"
)

const pumpSubsystem = "pump"

type PumpCollector struct {
	engine *pumps.Engine

	running      *prometheus.Desc
	lockedOut    *prometheus.Desc
	totalRuntime *prometheus.Desc
	totalSteps   *prometheus.Desc
	volume       *prometheus.Desc
}

func NewPumpCollector(engine *pumps.Engine) *PumpCollector {
	return &PumpCollector{
		engine: engine,
		running: prometheus.NewDesc(prometheus.BuildFQName(namespace, pumpSubsystem, "running"),
			"Whether the pump is currently running",
			[]string{"id"}, nil,
		),
		lockedOut: prometheus.NewDesc(prometheus.BuildFQName(namespace, pumpSubsystem, "locked_out"),
			"Whether the pump is in runtime-limit lockout",
			[]string{"id"}, nil,
		),
		totalRuntime: prometheus.NewDesc(prometheus.BuildFQName(namespace, pumpSubsystem, "runtime_seconds_total"),
			"Lifetime pump runtime",
			[]string{"id"}, nil,
		),
		totalSteps: prometheus.NewDesc(prometheus.BuildFQName(namespace, pumpSubsystem, "steps_total"),
			"Lifetime drive steps",
			[]string{"id"}, nil,
		),
		volume: prometheus.NewDesc(prometheus.BuildFQName(namespace, pumpSubsystem, "volume_dispensed_ml"),
			"Lifetime dosed volume in ml",
			[]string{"id"}, nil,
		),
	}
}

func (collector *PumpCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.running
	ch <- collector.lockedOut
	ch <- collector.totalRuntime
	ch <- collector.totalSteps
	ch <- collector.volume
}

// Collect implements required collect function for all prometheus collectors
func (collector *PumpCollector) Collect(ch chan<- prometheus.Metric) {
	for _, snapshot := range collector.engine.Snapshots() {
		ch <- prometheus.MustNewConstMetric(collector.running, prometheus.GaugeValue, boolToFloat(snapshot.Running), snapshot.ID)
		ch <- prometheus.MustNewConstMetric(collector.lockedOut, prometheus.GaugeValue, boolToFloat(snapshot.State == pumps.StateLockedOut), snapshot.ID)
		ch <- prometheus.MustNewConstMetric(collector.totalRuntime, prometheus.CounterValue, snapshot.TotalRuntime.Seconds(), snapshot.ID)
		ch <- prometheus.MustNewConstMetric(collector.totalSteps, prometheus.CounterValue, float64(snapshot.TotalSteps), snapshot.ID)
		ch <- prometheus.MustNewConstMetric(collector.volume, prometheus.CounterValue, snapshot.VolumeDispensed, snapshot.ID)
	}
}
