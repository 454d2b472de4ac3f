package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	logger "github.com/sirupsen/logrus"

	"github.com/sweeney/segment-clock/internal/clock"
)

// bufferSize is how many messages are held while disconnected.
const bufferSize = 256

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are held in a ring buffer and sent in order
// once it is back.
type RealPublisher struct {
	client paho.Client
	topic  string

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher starts connecting to the broker and returns at once.
// The client keeps retrying in the background.
func NewRealPublisher(o Options) *RealPublisher {
	if o.Topic == "" {
		o.Topic = DefaultTopic
	}
	p := &RealPublisher{
		topic: o.Topic,
		buf:   newRingBuffer(bufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(SystemTopic(o.Topic), string(willPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WithError(err).Warn("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	p.mu.Unlock()

	logger.WithFields(logger.Fields{"buffered": len(pending)}).Info("mqtt connected")
	for i, m := range pending {
		if err := p.send(m); err != nil {
			logger.WithError(err).Warn("mqtt replay failed, re-buffering")
			p.mu.Lock()
			for _, rest := range pending[i:] {
				p.buf.push(rest)
			}
			p.mu.Unlock()
			return
		}
	}

	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	if err := p.send(bufferedMsg{topic: SystemTopic(p.topic), payload: payload, qos: 1, retained: true}); err != nil {
		logger.WithError(err).Warn("mqtt reconnect notice failed")
	}
}

var errNotConnected = errors.New("not connected")

func (p *RealPublisher) send(m bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		return errNotConnected
	}
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// publishOrBuffer sends m, holding it for replay if the broker is away.
func (p *RealPublisher) publishOrBuffer(m bufferedMsg) error {
	err := p.send(m)
	if err == nil {
		return nil
	}
	p.mu.Lock()
	p.buf.push(m)
	p.mu.Unlock()
	if errors.Is(err, errNotConnected) {
		return nil
	}
	return err
}

// Publish sends a clock event. QoS 0, not retained.
func (p *RealPublisher) Publish(event clock.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publishOrBuffer(bufferedMsg{topic: EventTopic(p.topic, event.Type), payload: payload})
}

// PublishSystem sends a lifecycle event. QoS 1 so shutdown is delivered.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publishOrBuffer(bufferedMsg{
		topic:    SystemTopic(p.topic),
		payload:  payload,
		qos:      1,
		retained: event.Retained,
	})
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
