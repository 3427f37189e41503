package weblog

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIndexServesViewerPage(t *testing.T) {
	srv := NewServer(NewBuffer(10))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	buf := make([]byte, 4096)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "EventSource(\"/stream\")") {
		t.Error("index page does not open the SSE stream")
	}
}

func TestStreamDeliversBufferOnChange(t *testing.T) {
	buffer := NewBuffer(10)
	buffer.Append("hello from the loop")

	srv := NewServer(buffer)
	srv.pollInterval = 10 * time.Millisecond
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stream")
	if err != nil {
		t.Fatalf("GET /stream failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read SSE frame: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("frame = %q, want data: prefix", line)
	}

	var lines []string
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &lines); err != nil {
		t.Fatalf("frame payload is not a JSON array: %v", err)
	}
	if len(lines) != 1 || lines[0] != "hello from the loop" {
		t.Errorf("frame payload = %v", lines)
	}

	// A new append produces a second frame carrying the full buffer.
	buffer.Append("second line")
	deadline := time.Now().Add(2 * time.Second)
	var second string
	for time.Now().Before(deadline) {
		l, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read second frame: %v", err)
		}
		if strings.HasPrefix(l, "data: ") {
			second = l
			break
		}
	}
	if second == "" {
		t.Fatal("no second frame after buffer change")
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(second), "data: ")), &lines); err != nil {
		t.Fatalf("second frame payload is not a JSON array: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("second frame carries %d lines, want 2", len(lines))
	}
}

func TestHealthReportsOK(t *testing.T) {
	srv := NewServer(NewBuffer(10))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptimeSeconds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("uptimeSeconds = %v, want >= 0", body.UptimeSeconds)
	}
}

func TestStopWithoutStartIsSafe(t *testing.T) {
	srv := NewServer(NewBuffer(10))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop() before Start failed: %v", err)
	}
}

func TestStopUnblocksConcurrentStart(t *testing.T) {
	srv := NewServer(NewBuffer(10))

	done := make(chan error, 1)
	go func() { done <- srv.Start("127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v after Stop, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := NewServer(NewBuffer(10))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", resp.StatusCode)
	}
}
