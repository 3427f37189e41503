// Package smoothing implements the moving-average trackers used by the
// control loop to damp short spikes in the sensor signals.
//
// Each tracker holds at most N samples (strict FIFO eviction) and reports
// the arithmetic mean of whatever it currently holds. The trackers are
// owned exclusively by the control loop's tick goroutine and are therefore
// not safe for concurrent use.
package smoothing

// DefaultWindow is the default moving-average window length.
const DefaultWindow = 10

// MovingAverage is a fixed-capacity sliding window over numeric samples.
type MovingAverage struct {
	samples  []float64
	capacity int
}

// NewMovingAverage creates a tracker holding at most capacity samples.
// A capacity of zero or less falls back to DefaultWindow.
func NewMovingAverage(capacity int) *MovingAverage {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &MovingAverage{
		samples:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a sample, evicting the oldest one when the window is full.
func (m *MovingAverage) Push(v float64) {
	if len(m.samples) == m.capacity {
		copy(m.samples, m.samples[1:])
		m.samples = m.samples[:m.capacity-1]
	}
	m.samples = append(m.samples, v)
}

// Current returns the arithmetic mean of the samples currently held.
// The second return value is false when no sample has been pushed yet.
func (m *MovingAverage) Current() (float64, bool) {
	if len(m.samples) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range m.samples {
		sum += v
	}
	return sum / float64(len(m.samples)), true
}

// Len returns the number of samples currently held.
func (m *MovingAverage) Len() int {
	return len(m.samples)
}

// Capacity returns the fixed window length.
func (m *MovingAverage) Capacity() int {
	return m.capacity
}
