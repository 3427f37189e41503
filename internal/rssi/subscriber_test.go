package rssi

import (
	"errors"
	"testing"

	"github.com/classroom-control/ccc/internal/mqtt"
)

// fakeConnection records subscriptions and lets tests inject messages.
type fakeConnection struct {
	handler      mqtt.MessageHandler
	topic        string
	disconnected int
	subscribeErr error
}

func (f *fakeConnection) Subscribe(topic string, handler mqtt.MessageHandler) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.topic = topic
	f.handler = handler
	return nil
}

func (f *fakeConnection) Disconnect() {
	f.disconnected++
}

func newTestSubscriber(conn *fakeConnection) *Subscriber {
	s := NewSubscriber("tcp://localhost:1883", "RSSI")
	s.connect = func() (connection, error) { return conn, nil }
	return s
}

func TestValidMessageUpdatesSnapshot(t *testing.T) {
	conn := &fakeConnection{}
	s := newTestSubscriber(conn)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	if _, ok := s.Latest(); ok {
		t.Fatal("Latest() reported a snapshot before any message")
	}

	conn.handler("RSSI", []byte(`{"rssi": -70, "timestamp": "2025-01-01T00:00:00.000Z"}`))

	snap, ok := s.Latest()
	if !ok {
		t.Fatal("Latest() reported no snapshot after a valid message")
	}
	if snap.Value != -70 {
		t.Errorf("snapshot value = %v, want -70", snap.Value)
	}
	if snap.Timestamp != "2025-01-01T00:00:00.000Z" {
		t.Errorf("snapshot timestamp = %q", snap.Timestamp)
	}
}

func TestMalformedMessageKeepsPreviousSnapshot(t *testing.T) {
	conn := &fakeConnection{}
	s := newTestSubscriber(conn)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	conn.handler("RSSI", []byte(`{"rssi": -70, "timestamp": "2025-01-01T00:00:00.000Z"}`))

	malformed := [][]byte{
		[]byte(`{"rssi": "oops"}`),
		[]byte(`{"timestamp": "2025-01-02T00:00:00.000Z"}`),
		[]byte(`not json at all`),
		[]byte(``),
	}
	for _, payload := range malformed {
		conn.handler("RSSI", payload)
	}

	snap, ok := s.Latest()
	if !ok {
		t.Fatal("snapshot was cleared by a malformed message")
	}
	if snap.Value != -70 || snap.Timestamp != "2025-01-01T00:00:00.000Z" {
		t.Errorf("snapshot changed after malformed messages: %+v", snap)
	}
}

func TestSnapshotReplacedWholesale(t *testing.T) {
	conn := &fakeConnection{}
	s := newTestSubscriber(conn)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	conn.handler("RSSI", []byte(`{"rssi": -70, "timestamp": "2025-01-01T00:00:00.000Z"}`))
	conn.handler("RSSI", []byte(`{"rssi": -55.5}`))

	snap, _ := s.Latest()
	if snap.Value != -55.5 {
		t.Errorf("snapshot value = %v, want -55.5", snap.Value)
	}
	// The timestamp belongs to the new reading, not the old one.
	if snap.Timestamp != "" {
		t.Errorf("snapshot timestamp = %q, want empty", snap.Timestamp)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	conn := &fakeConnection{}
	s := newTestSubscriber(conn)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() failed: %v", err)
	}

	s.Stop()
	s.Stop()

	if conn.disconnected != 1 {
		t.Errorf("Disconnect called %d times, want 1", conn.disconnected)
	}
}

func TestStartFailsWhenSubscribeFails(t *testing.T) {
	conn := &fakeConnection{subscribeErr: errors.New("broker refused")}
	s := newTestSubscriber(conn)

	if err := s.Start(); err == nil {
		t.Fatal("Start() succeeded despite subscribe failure")
	}
	if conn.disconnected != 1 {
		t.Errorf("failed Start left the connection open (disconnects = %d)", conn.disconnected)
	}

	// A failed start must leave the subscriber stoppable and restartable.
	s.Stop()
	conn.subscribeErr = nil
	if err := s.Start(); err != nil {
		t.Fatalf("Start() after recovery failed: %v", err)
	}
}
