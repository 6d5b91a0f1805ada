package mqtt

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/pi-buzzer/internal/logic"
)

// outboxCapacity bounds the number of messages kept while disconnected.
const outboxCapacity = 256

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topics Topics
	outbox *outbox
}

// NewRealPublisher creates a publisher connected to the given broker.
// The broker is retried in the background; messages published before the
// first connection are buffered.
func NewRealPublisher(broker, clientID string, topics Topics) (*RealPublisher, error) {
	p := &RealPublisher{topics: topics}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(topics.System, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			p.outbox.flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.outbox = newOutbox(outboxCapacity, p.client.IsConnectionOpen, p.send)

	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: %s not reachable yet, buffering until connected", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// PublishPress sends a decision. QoS 1: a lost press is a lost answer.
func (p *RealPublisher) PublishPress(d logic.Decision) error {
	payload, err := FormatPressPayload(d)
	if err != nil {
		return fmt.Errorf("format press payload: %w", err)
	}
	return p.outbox.publish(bufferedMsg{topic: p.topics.Press, payload: payload, qos: 1})
}

// PublishRound sends the round result, retained so late subscribers see the
// current winner.
func (p *RealPublisher) PublishRound(r logic.RoundResult) error {
	payload, err := FormatRoundPayload(r)
	if err != nil {
		return fmt.Errorf("format round payload: %w", err)
	}
	return p.outbox.publish(bufferedMsg{topic: p.topics.Round, payload: payload, qos: 1, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.outbox.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if n := p.outbox.pending(); n > 0 {
		log.Printf("mqtt: closing with %d unsent messages", n)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
