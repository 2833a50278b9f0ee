package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/ledclock/internal/logic"
)

const (
	clientID       = "ledclock"
	bufferCapacity = 256
	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are kept in a ring buffer and replayed in
// order after the next connect.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger
	now    func() time.Time

	mu            sync.Mutex
	buf           *ringBuffer
	everConnected bool
}

func newPublisher(log *zap.Logger) *RealPublisher {
	return &RealPublisher{
		log: log,
		now: time.Now,
		buf: newRingBuffer(bufferCapacity, log),
	}
}

// NewRealPublisher creates a publisher for the given broker. If the broker
// is not reachable within the connect timeout the publisher is still
// returned; it keeps retrying in the background and buffers meanwhile.
func NewRealPublisher(broker string, log *zap.Logger) (*RealPublisher, error) {
	p := newPublisher(log)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload(p.now())), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warn("mqtt broker not reachable yet, buffering", zap.String("broker", broker))
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect announces a reconnection and replays everything buffered
// while the link was down.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	first := !p.everConnected
	p.everConnected = true
	pending := p.buf.drainAll()
	p.mu.Unlock()

	if first {
		p.log.Info("mqtt connected")
	} else {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		c.Publish(TopicSystem, 1, false, payload)
		p.log.Info("mqtt reconnected", zap.Int("replayed", len(pending)))
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Publish sends a scheduling event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(Topic, 0, false, payload)
}

// PublishChange sends a variable's new value, retained so a late
// subscriber sees the current display state.
func (p *RealPublisher) PublishChange(change logic.Change) error {
	payload, err := FormatChangePayload(change)
	if err != nil {
		return fmt.Errorf("format change payload: %w", err)
	}
	return p.publish(VarTopic(change.Name), 1, true, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
