package statistics

import (
	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/prometheus/client_golang/prometheus"
)

const fuzzySubsystem = "fuzzy"

type FuzzyCollector struct {
	engine *fuzzy.Engine

	rate        *prometheus.Desc
	activeRules *prometheus.Desc
	maxFiring   *prometheus.Desc
}

func NewFuzzyCollector(engine *fuzzy.Engine) *FuzzyCollector {
	return &FuzzyCollector{
		engine: engine,
		rate: prometheus.NewDesc(prometheus.BuildFQName(namespace, fuzzySubsystem, "rate_percent"),
			"Recommended dosing rate per output",
			[]string{"output"}, nil,
		),
		activeRules: prometheus.NewDesc(prometheus.BuildFQName(namespace, fuzzySubsystem, "active_rules"),
			"Number of rules that fired in the last evaluation",
			nil, nil,
		),
		maxFiring: prometheus.NewDesc(prometheus.BuildFQName(namespace, fuzzySubsystem, "max_firing_strength"),
			"Firing strength of the dominant rule",
			nil, nil,
		),
	}
}

func (collector *FuzzyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.rate
	ch <- collector.activeRules
	ch <- collector.maxFiring
}

// Collect implements required collect function for all prometheus collectors
func (collector *FuzzyCollector) Collect(ch chan<- prometheus.Metric) {
	result := collector.engine.LastResult()

	ch <- prometheus.MustNewConstMetric(collector.rate, prometheus.GaugeValue, result.BlowdownRate, "blowdown")
	ch <- prometheus.MustNewConstMetric(collector.rate, prometheus.GaugeValue, result.CausticRate, "caustic")
	ch <- prometheus.MustNewConstMetric(collector.rate, prometheus.GaugeValue, result.SulfiteRate, "sulfite")
	ch <- prometheus.MustNewConstMetric(collector.rate, prometheus.GaugeValue, result.AcidRate, "acid")
	ch <- prometheus.MustNewConstMetric(collector.activeRules, prometheus.GaugeValue, float64(result.ActiveRules))
	ch <- prometheus.MustNewConstMetric(collector.maxFiring, prometheus.GaugeValue, result.MaxFiringStrength)
}
