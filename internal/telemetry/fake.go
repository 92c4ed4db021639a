package telemetry

import (
	"sync"

	"github.com/boilerctl/boilerctl/internal/alarms"
)

// FakePublisher records everything it is asked to publish.
type FakePublisher struct {
	mu       sync.Mutex
	Readings []Reading
	Alarms   []alarms.Edge
	Closed   bool
}

func (p *FakePublisher) PublishReading(reading Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Readings = append(p.Readings, reading)
	return nil
}

func (p *FakePublisher) PublishAlarm(edge alarms.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Alarms = append(p.Alarms, edge)
	return nil
}

func (p *FakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}
