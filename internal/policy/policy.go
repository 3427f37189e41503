// Package policy maps a smoothed signal value to an optional directional
// actuator command using a pair of independent bounds per signal.
//
// The policy is stateless: it looks only at the instantaneous smoothed
// value relative to the bounds. Reaction delay comes from the smoothing
// window upstream, not from any raised/lowered state tracked here.
//
// Note the per-signal semantics are intentionally literal. For brightness,
// Raise means "turn the light up" (value below Low). For volume, Raise
// means "turn the volume up" (value below Low, i.e. too quiet). The
// bound/direction shape is identical; only the real-world meaning differs.
package policy

import "fmt"

// Direction is a directional actuator command.
type Direction int

const (
	// Raise asks the actuator to increase (payload "UP").
	Raise Direction = iota + 1
	// Lower asks the actuator to decrease (payload "DOWN").
	Lower
)

// Wire payloads published to the actuator topics.
const (
	PayloadUp   = "UP"
	PayloadDown = "DOWN"
)

// Default bound pairs for the two configured signals.
var (
	// DefaultBrightness covers the 0-255 grayscale mean scale.
	DefaultBrightness = Bounds{Low: 80.0, High: 180.0}
	// DefaultVolume covers dB values; higher (closer to 0) is louder.
	DefaultVolume = Bounds{Low: -40.0, High: -20.0}
)

// String returns the human-readable direction name.
func (d Direction) String() string {
	switch d {
	case Raise:
		return "RAISE"
	case Lower:
		return "LOWER"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Payload returns the literal MQTT payload for the direction.
func (d Direction) Payload() string {
	if d == Lower {
		return PayloadDown
	}
	return PayloadUp
}

// Bounds holds the low/high thresholds for one signal.
type Bounds struct {
	Low  float64
	High float64
}

// Decide evaluates a smoothed value against the bounds.
// Values strictly below Low yield Raise, values strictly above High yield
// Lower, and anything in the inclusive band [Low, High] yields no command.
func (b Bounds) Decide(value float64) (Direction, bool) {
	switch {
	case value < b.Low:
		return Raise, true
	case value > b.High:
		return Lower, true
	default:
		return 0, false
	}
}

// Validate reports an error when the bounds do not form a proper band.
func (b Bounds) Validate() error {
	if b.Low >= b.High {
		return fmt.Errorf("invalid bounds: low %.1f must be below high %.1f", b.Low, b.High)
	}
	return nil
}
