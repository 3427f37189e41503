// Package fake provides scripted sensor implementations for tests and for
// running the container on machines without a camera or microphone.
package fake

import (
	"sync"

	"github.com/classroom-control/ccc/internal/sensor"
)

// Camera is a scripted BrightnessSensor. It cycles through its configured
// readings and can simulate capture failures.
type Camera struct {
	mu       sync.Mutex
	readings []float64
	next     int
	failing  bool
	released bool
}

// NewCamera creates a fake camera cycling through the given readings.
// With no readings it reports a constant mid-scale 128.
func NewCamera(readings ...float64) *Camera {
	if len(readings) == 0 {
		readings = []float64{128}
	}
	return &Camera{readings: readings}
}

// ReadBrightness returns the next scripted reading.
func (c *Camera) ReadBrightness() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return 0, sensor.ErrClosed
	}
	if c.failing {
		return 0, sensor.ErrNoFrame
	}

	v := c.readings[c.next]
	c.next = (c.next + 1) % len(c.readings)
	return v, nil
}

// Release marks the camera released. Idempotent.
func (c *Camera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

// Released reports whether Release has been called.
func (c *Camera) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// SetErrorSimulation toggles capture failures.
func (c *Camera) SetErrorSimulation(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing = on
}

// Microphone is a scripted VolumeSensor.
type Microphone struct {
	mu       sync.Mutex
	readings []float64
	next     int
	failing  bool
}

// NewMicrophone creates a fake microphone cycling through the given dB
// readings. With no readings it reports a constant quiet -35 dB.
func NewMicrophone(readings ...float64) *Microphone {
	if len(readings) == 0 {
		readings = []float64{-35}
	}
	return &Microphone{readings: readings}
}

// MeasureVolumeDB returns the next scripted reading.
func (m *Microphone) MeasureVolumeDB() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return 0, sensor.ErrNoAudio
	}

	v := m.readings[m.next]
	m.next = (m.next + 1) % len(m.readings)
	return v, nil
}

// SetErrorSimulation toggles measurement failures.
func (m *Microphone) SetErrorSimulation(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = on
}
