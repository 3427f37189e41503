// Package rssi implements the optional wireless signal-strength subscriber.
//
// The subscriber listens on one MQTT topic and remembers only the most
// recent reading. The snapshot is replaced wholesale on every valid
// message (atomic handle swap), so the control loop always observes either
// a fully-old or fully-new reading, never a torn one. A malformed payload
// is logged and discarded; it never corrupts or clears the last-known-good
// snapshot.
package rssi

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/classroom-control/ccc/internal/mqtt"
)

// DefaultTopic matches the topic the Node-RED flow publishes on.
const DefaultTopic = "RSSI"

// Snapshot is an immutable copy of the latest RSSI reading.
type Snapshot struct {
	Value     float64
	Timestamp string
	Raw       string
}

// connection is the transport surface the subscriber needs; satisfied by
// *mqtt.Client and by test fakes.
type connection interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
	Disconnect()
}

// Subscriber receives asynchronous RSSI updates and caches the latest one.
type Subscriber struct {
	topic   string
	connect func() (connection, error)

	mu      sync.Mutex
	conn    connection
	started bool

	snapshot atomic.Value // holds Snapshot
}

// NewSubscriber creates a subscriber for the given broker and topic.
// Nothing is connected until Start is called.
func NewSubscriber(brokerURL, topic string) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Subscriber{
		topic: topic,
		connect: func() (connection, error) {
			return mqtt.Connect(brokerURL, mqtt.ClientID("ccc-rssi"))
		},
	}
}

// Start connects to the broker and begins asynchronous delivery.
// Calling Start while already started is a no-op.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	conn, err := s.connect()
	if err != nil {
		return fmt.Errorf("failed to start RSSI subscriber: %w", err)
	}
	if err := conn.Subscribe(s.topic, s.handleMessage); err != nil {
		conn.Disconnect()
		return fmt.Errorf("failed to start RSSI subscriber: %w", err)
	}

	s.conn = conn
	s.started = true
	log.Printf("RSSI subscriber started on topic %q", s.topic)
	return nil
}

// Stop halts delivery and disconnects. Calling Stop while already stopped
// is a no-op.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.conn.Disconnect()
	s.conn = nil
	s.started = false
	log.Println("RSSI subscriber stopped")
}

// Latest returns the most recent snapshot. The second return value is
// false until the first valid message arrives.
func (s *Subscriber) Latest() (Snapshot, bool) {
	v := s.snapshot.Load()
	if v == nil {
		return Snapshot{}, false
	}
	return v.(Snapshot), true
}

// handleMessage runs on the transport's delivery goroutine.
func (s *Subscriber) handleMessage(topic string, payload []byte) {
	snap, err := parsePayload(payload)
	if err != nil {
		log.Printf("Failed to parse RSSI payload on %s: %v", topic, err)
		return
	}

	s.snapshot.Store(snap)
	if snap.Timestamp != "" {
		log.Printf("RSSI = %6.1f dBm at %s", snap.Value, snap.Timestamp)
	} else {
		log.Printf("RSSI = %6.1f dBm", snap.Value)
	}
}

// parsePayload decodes {"rssi": <number>, "timestamp": "<ISO-8601>"}.
// The rssi field must be present and numeric; the timestamp is carried
// through as-is when present.
func parsePayload(payload []byte) (Snapshot, error) {
	var wire struct {
		RSSI      *float64 `json:"rssi"`
		Timestamp string   `json:"timestamp"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Snapshot{}, fmt.Errorf("malformed RSSI payload %q: %w", payload, err)
	}
	if wire.RSSI == nil {
		return Snapshot{}, fmt.Errorf("RSSI payload %q is missing a numeric rssi field", payload)
	}

	return Snapshot{
		Value:     *wire.RSSI,
		Timestamp: wire.Timestamp,
		Raw:       string(payload),
	}, nil
}
