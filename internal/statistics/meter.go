package statistics

import (
	"github.com/boilerctl/boilerctl/internal/meters"
	"github.com/prometheus/client_golang/prometheus"
)

const meterSubsystem = "meter"

type MeterCollector struct {
	meters []*meters.Meter

	contacts *prometheus.Desc
	volume   *prometheus.Desc
}

func NewMeterCollector(meters []*meters.Meter) *MeterCollector {
	return &MeterCollector{
		meters: meters,
		contacts: prometheus.NewDesc(prometheus.BuildFQName(namespace, meterSubsystem, "contacts_total"),
			"Total water meter contacts",
			[]string{"id"}, nil,
		),
		volume: prometheus.NewDesc(prometheus.BuildFQName(namespace, meterSubsystem, "volume_liters_total"),
			"Total metered water volume in liters",
			[]string{"id"}, nil,
		),
	}
}

func (collector *MeterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.contacts
	ch <- collector.volume
}

// Collect implements required collect function for all prometheus collectors
func (collector *MeterCollector) Collect(ch chan<- prometheus.Metric) {
	for _, meter := range collector.meters {
		contacts, volume := meter.Totals()
		ch <- prometheus.MustNewConstMetric(collector.contacts, prometheus.CounterValue, float64(contacts), meter.GetId())
		ch <- prometheus.MustNewConstMetric(collector.volume, prometheus.CounterValue, volume, meter.GetId())
	}
}
