package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/boilerctl/boilerctl/internal/alarms"
	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/ui"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	defaultBufferSize = 256
)

// PahoPublisher publishes to an actual MQTT broker. Messages produced while
// the broker is unreachable are kept in a ring buffer and replayed on
// reconnect.
type PahoPublisher struct {
	client      paho.Client
	topicPrefix string

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewPahoPublisher creates a publisher connected to the configured broker.
func NewPahoPublisher(config configuration.MqttConfig) (*PahoPublisher, error) {
	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	publisher := &PahoPublisher{
		topicPrefix: config.TopicPrefix,
		buffer:      newRingBuffer(bufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(publisher.onConnect)

	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	publisher.client = client
	return publisher, nil
}

// PublishReading sends a periodic sample at QoS 0.
func (p *PahoPublisher) PublishReading(reading Reading) error {
	payload, err := FormatReading(reading)
	if err != nil {
		return fmt.Errorf("format reading: %w", err)
	}
	return p.publish(p.topicPrefix+"/readings", 0, false, payload)
}

// PublishAlarm sends an alarm transition at QoS 1, alarms must not be lost
// to a flaky link.
func (p *PahoPublisher) PublishAlarm(edge alarms.Edge) error {
	payload, err := FormatAlarm(edge)
	if err != nil {
		return fmt.Errorf("format alarm: %w", err)
	}
	return p.publish(p.topicPrefix+"/alarms", 1, false, payload)
}

func (p *PahoPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// onConnect replays everything buffered while the link was down.
func (p *PahoPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	buffered := p.buffer.drainAll()
	p.mu.Unlock()

	if len(buffered) == 0 {
		return
	}

	ui.Info("telemetry: replaying %d buffered messages", len(buffered))
	for _, msg := range buffered {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		token.WaitTimeout(publishTimeout)
	}
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
