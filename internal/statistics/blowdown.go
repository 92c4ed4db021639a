package statistics

import (
	"github.com/boilerctl/boilerctl/internal/blowdown"
	"github.com/prometheus/client_golang/prometheus"
)

const blowdownSubsystem = "blowdown"

type BlowdownCollector struct {
	controller *blowdown.Controller

	valveOpen      *prometheus.Desc
	conductivity   *prometheus.Desc
	trappedSample  *prometheus.Desc
	dailyTotal     *prometheus.Desc
	accumulated    *prometheus.Desc
	timeoutLatched *prometheus.Desc
}

func NewBlowdownCollector(controller *blowdown.Controller) *BlowdownCollector {
	return &BlowdownCollector{
		controller: controller,
		valveOpen: prometheus.NewDesc(prometheus.BuildFQName(namespace, blowdownSubsystem, "valve_open"),
			"Whether the blowdown valve is currently open",
			nil, nil,
		),
		conductivity: prometheus.NewDesc(prometheus.BuildFQName(namespace, blowdownSubsystem, "conductivity"),
			"Conductivity the controller is acting on, in microsiemens per cm",
			nil, nil,
		),
		trappedSample: prometheus.NewDesc(prometheus.BuildFQName(namespace, blowdownSubsystem, "trapped_sample"),
			"Conductivity of the last trapped sample, in microsiemens per cm",
			nil, nil,
		),
		dailyTotal: prometheus.NewDesc(prometheus.BuildFQName(namespace, blowdownSubsystem, "daily_total_seconds"),
			"Total blowdown time today",
			nil, nil,
		),
		accumulated: prometheus.NewDesc(prometheus.BuildFQName(namespace, blowdownSubsystem, "accumulated_seconds"),
			"Blowdown time banked for percent-of-blowdown chemical feed",
			nil, nil,
		),
		timeoutLatched: prometheus.NewDesc(prometheus.BuildFQName(namespace, blowdownSubsystem, "timeout_latched"),
			"Whether the blowdown time limit has latched",
			nil, nil,
		),
	}
}

func (collector *BlowdownCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.valveOpen
	ch <- collector.conductivity
	ch <- collector.trappedSample
	ch <- collector.dailyTotal
	ch <- collector.accumulated
	ch <- collector.timeoutLatched
}

// Collect implements required collect function for all prometheus collectors
func (collector *BlowdownCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.controller.Snapshot()

	ch <- prometheus.MustNewConstMetric(collector.valveOpen, prometheus.GaugeValue, boolToFloat(snapshot.ValveOpen))
	ch <- prometheus.MustNewConstMetric(collector.conductivity, prometheus.GaugeValue, snapshot.Conductivity)
	ch <- prometheus.MustNewConstMetric(collector.trappedSample, prometheus.GaugeValue, snapshot.TrappedSample)
	ch <- prometheus.MustNewConstMetric(collector.dailyTotal, prometheus.CounterValue, snapshot.DailyTotal.Seconds())
	ch <- prometheus.MustNewConstMetric(collector.accumulated, prometheus.GaugeValue, snapshot.AccumulatedBlowdown.Seconds())
	ch <- prometheus.MustNewConstMetric(collector.timeoutLatched, prometheus.GaugeValue, boolToFloat(snapshot.TimeoutLatched))
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
