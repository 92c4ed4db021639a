// Package telemetry publishes periodic readings and alarm transitions over
// MQTT. A nil MQTT configuration disables the subsystem entirely.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/boilerctl/boilerctl/internal/alarms"
)

// Reading is one periodic telemetry sample.
type Reading struct {
	Timestamp     string  `json:"timestamp"`
	Conductivity  float64 `json:"conductivity"`
	CondValid     bool    `json:"condValid"`
	Temperature   float64 `json:"temperature"`
	FlowOK        bool    `json:"flowOk"`
	ValveOpen     bool    `json:"valveOpen"`
	BlowdownState string  `json:"blowdownState"`

	DailyBlowdownSeconds float64 `json:"dailyBlowdownSeconds"`

	Pumps []PumpReading `json:"pumps,omitempty"`

	BlowdownRate float64 `json:"blowdownRate"`
	CausticRate  float64 `json:"causticRate"`
	SulfiteRate  float64 `json:"sulfiteRate"`
	AcidRate     float64 `json:"acidRate"`
}

// PumpReading is the per-pump part of a telemetry sample.
type PumpReading struct {
	ID              string  `json:"id"`
	State           string  `json:"state"`
	Running         bool    `json:"running"`
	VolumeDispensed float64 `json:"volumeDispensed"`
}

// Publisher sends telemetry to the broker.
type Publisher interface {
	// PublishReading sends a periodic sample. Failures are buffered, not
	// fatal.
	PublishReading(reading Reading) error

	// PublishAlarm sends an alarm transition.
	PublishAlarm(edge alarms.Edge) error

	// Close disconnects from the broker.
	Close() error
}

// FormatReading creates the JSON payload for a periodic sample.
func FormatReading(reading Reading) ([]byte, error) {
	return json.Marshal(reading)
}

// alarmPayload is the wire format of an alarm transition.
type alarmPayload struct {
	Timestamp string `json:"timestamp"`
	Alarm     string `json:"alarm"`
	Raised    bool   `json:"raised"`
}

// FormatAlarm creates the JSON payload for an alarm transition.
func FormatAlarm(edge alarms.Edge) ([]byte, error) {
	return json.Marshal(alarmPayload{
		Timestamp: edge.At.UTC().Format(time.RFC3339),
		Alarm:     edge.Name,
		Raised:    edge.Raised,
	})
}
