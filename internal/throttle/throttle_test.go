package throttle

import (
	"errors"
	"testing"
	"time"
)

// recordingPublish captures sends and optionally fails them.
type recordingPublish struct {
	sent []string
	err  error
}

func (r *recordingPublish) publish(destination, payload string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, destination+":"+payload)
	return nil
}

func TestTryEmitSuppressesWithinWindow(t *testing.T) {
	rec := &recordingPublish{}
	th := New(5*time.Second, rec.publish)
	t0 := time.Unix(1000, 0)

	if !th.TryEmit("light", "UP", t0) {
		t.Fatal("first TryEmit was suppressed")
	}
	if th.TryEmit("light", "UP", t0.Add(4900*time.Millisecond)) {
		t.Error("TryEmit at t0+4.9s was not suppressed")
	}
	if !th.TryEmit("light", "UP", t0.Add(5100*time.Millisecond)) {
		t.Error("TryEmit at t0+5.1s was suppressed")
	}

	if len(rec.sent) != 2 {
		t.Errorf("publish called %d times, want 2", len(rec.sent))
	}
}

func TestDestinationsAreIndependent(t *testing.T) {
	rec := &recordingPublish{}
	th := New(5*time.Second, rec.publish)
	now := time.Unix(2000, 0)

	if !th.TryEmit("light", "UP", now) {
		t.Error("light emit was suppressed")
	}
	if !th.TryEmit("speaker", "DOWN", now) {
		t.Error("speaker emit at the same instant was suppressed")
	}

	want := []string{"light:UP", "speaker:DOWN"}
	for i, w := range want {
		if rec.sent[i] != w {
			t.Errorf("sent[%d] = %q, want %q", i, rec.sent[i], w)
		}
	}
}

func TestFailedSendDoesNotConsumeWindow(t *testing.T) {
	rec := &recordingPublish{err: errors.New("broker gone")}
	th := New(5*time.Second, rec.publish)
	now := time.Unix(3000, 0)

	if th.TryEmit("light", "UP", now) {
		t.Fatal("TryEmit reported success despite transport failure")
	}

	// An immediate retry at the same timestamp must still be attempted.
	rec.err = nil
	if !th.TryEmit("light", "UP", now) {
		t.Error("retry at the same timestamp was suppressed")
	}
	if len(rec.sent) != 1 {
		t.Errorf("publish succeeded %d times, want 1", len(rec.sent))
	}
}

func TestSuppressedEmitDoesNotTouchTransport(t *testing.T) {
	rec := &recordingPublish{}
	th := New(5*time.Second, rec.publish)
	now := time.Unix(4000, 0)

	th.TryEmit("speaker", "UP", now)
	th.TryEmit("speaker", "DOWN", now.Add(time.Second))

	if len(rec.sent) != 1 {
		t.Fatalf("publish called %d times, want 1", len(rec.sent))
	}
	if rec.sent[0] != "speaker:UP" {
		t.Errorf("sent[0] = %q, want speaker:UP", rec.sent[0])
	}
}

// recordingAudit captures audit outcomes per attempt.
type recordingAudit struct {
	outcomes []string
}

func (r *recordingAudit) LogCommand(destination, payload, outcome, detail string) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestAuditTrailCoversAllOutcomes(t *testing.T) {
	rec := &recordingPublish{}
	aud := &recordingAudit{}
	th := New(5*time.Second, rec.publish)
	th.SetAuditLogger(aud)
	t0 := time.Unix(5000, 0)

	th.TryEmit("light", "UP", t0)                 // published
	th.TryEmit("light", "UP", t0.Add(time.Second)) // suppressed
	rec.err = errors.New("broker gone")
	th.TryEmit("speaker", "DOWN", t0) // failed

	want := []string{"PUBLISHED", "SUPPRESSED", "FAILED"}
	if len(aud.outcomes) != len(want) {
		t.Fatalf("audit recorded %d outcomes, want %d", len(aud.outcomes), len(want))
	}
	for i, w := range want {
		if aud.outcomes[i] != w {
			t.Errorf("outcomes[%d] = %q, want %q", i, aud.outcomes[i], w)
		}
	}
}

func TestNonPositiveIntervalFallsBackToDefault(t *testing.T) {
	th := New(0, func(string, string) error { return nil })
	if th.MinInterval() != DefaultMinInterval {
		t.Errorf("MinInterval() = %v, want %v", th.MinInterval(), DefaultMinInterval)
	}
}
