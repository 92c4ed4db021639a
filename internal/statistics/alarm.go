package statistics

import (
	"github.com/boilerctl/boilerctl/internal/alarms"
	"github.com/prometheus/client_golang/prometheus"
)

const alarmSubsystem = "alarm"

type AlarmCollector struct {
	poller *alarms.Poller

	active *prometheus.Desc
}

func NewAlarmCollector(poller *alarms.Poller) *AlarmCollector {
	return &AlarmCollector{
		poller: poller,
		active: prometheus.NewDesc(prometheus.BuildFQName(namespace, alarmSubsystem, "active"),
			"Whether the alarm is currently active",
			[]string{"name"}, nil,
		),
	}
}

func (collector *AlarmCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.active
}

// Collect implements required collect function for all prometheus collectors
func (collector *AlarmCollector) Collect(ch chan<- prometheus.Metric) {
	active := collector.poller.Active()
	for _, alarm := range []alarms.Alarm{
		alarms.AlarmCondHigh, alarms.AlarmCondLow, alarms.AlarmNoFlow,
		alarms.AlarmSensorError, alarms.AlarmBlowdownTimeout, alarms.AlarmPumpLockout,
	} {
		ch <- prometheus.MustNewConstMetric(collector.active, prometheus.GaugeValue, boolToFloat(active&alarm != 0), alarm.String())
	}
}
