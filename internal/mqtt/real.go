package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/segment-clock/internal/logic"
)

// bufferCapacity bounds how many messages are kept while offline.
const bufferCapacity = 64

// RealPublisher publishes to an actual MQTT broker. It never blocks the
// clock loop waiting for the network: messages published while offline
// are buffered and replayed on (re)connect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	pending *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. Connection
// is retried in the background.
func NewRealPublisher(broker string) *RealPublisher {
	p := newPublisher()

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "CONNECTION_LOST",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("segment-clock").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func newPublisher() *RealPublisher {
	return &RealPublisher{pending: newRingBuffer(bufferCapacity)}
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.pending.drain()
	p.mu.Unlock()

	if dropped > 0 {
		log.Printf("mqtt: connected, %d buffered messages were dropped", dropped)
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: connected, replaying %d buffered messages", len(msgs))
	}
	for _, m := range msgs {
		watch(c.Publish(m.topic, m.qos, m.retained, m.payload), m.topic)
	}
}

// send buffers msg while the connection is down. The check and the push
// happen under mu, the same lock onConnect drains under, so a message is
// either buffered before the drain or published after the connection opens.
func (p *RealPublisher) send(msg outbound, wait bool) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.pending.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !wait {
		watch(token, msg.topic)
		return nil
	}
	if !token.WaitTimeout(5 * time.Second) {
		return errTimeout
	}
	return token.Error()
}

// watch logs the outcome of a token without blocking the caller.
func watch(token paho.Token, topic string) {
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish to %s failed: %v", topic, err)
		}
	}()
}

// Publish queues a clock event (QoS 0, not retained).
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(outbound{topic: Topic, payload: payload}, false)
}

// PublishSystem sends a system lifecycle event (QoS 1). Retained events
// (startup, shutdown) wait for delivery; others are queued.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	msg := outbound{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}
	if err := p.send(msg, event.Retained); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

var errTimeout = errors.New("publish timeout")
