// Package mqtt wraps the Eclipse Paho client behind the small publish and
// subscribe surface the container actually needs. Connection failures are
// fatal at startup; publish failures are returned to the caller so the
// throttle can decide whether the send consumed its window.
package mqtt

import (
	"errors"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrNotConnected indicates the underlying client lost its connection.
var ErrNotConnected = errors.New("UNAVAILABLE: mqtt client not connected")

// Publisher is the minimal northbound publish port.
type Publisher interface {
	Publish(topic, payload string) error
}

// MessageHandler receives asynchronously delivered messages.
type MessageHandler func(topic string, payload []byte)

// Client is a thin wrapper over a connected Paho MQTT client.
type Client struct {
	inner paho.Client
}

// ClientID returns a collision-safe client identifier with the given prefix.
func ClientID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// Connect dials the broker and blocks until the connection is established
// or fails. All commands and telemetry use QoS 0, so no session state is
// requested.
func Connect(brokerURL, clientID string) (*Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, token.Error())
	}

	return &Client{inner: client}, nil
}

// Publish sends a payload with at-most-once semantics (QoS 0, no retain).
func (c *Client) Publish(topic, payload string) error {
	if !c.inner.IsConnected() {
		return ErrNotConnected
	}

	token := c.inner.Publish(topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic with QoS 0 delivery.
// The handler runs on the Paho network goroutine, independent of the
// control loop's tick thread.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	token := c.inner.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// Disconnect stops the background network activity and closes the
// connection, allowing up to 250ms for in-flight work to finish.
func (c *Client) Disconnect() {
	c.inner.Disconnect(250)
}
