// Package sensor defines the southbound sensor contracts consumed by the
// control loop.
//
// A sensor read is a synchronous, blocking call made once per tick.
// Implementations normalize their failures to the sentinel errors below so
// the loop can log a recognizable code and carry on; a failed read is a
// transient per-tick condition, never a loop-terminating one.
package sensor

import "errors"

// Normalized sensor errors.
var (
	// ErrNoFrame indicates the camera produced no frame for this read.
	ErrNoFrame = errors.New("NO_FRAME")
	// ErrNoAudio indicates the microphone produced no samples for this read.
	ErrNoAudio = errors.New("NO_AUDIO")
	// ErrClosed indicates the sensor was already released.
	ErrClosed = errors.New("CLOSED")
)

// BrightnessSensor produces an ambient brightness reading in [0, 255],
// higher meaning brighter.
type BrightnessSensor interface {
	// ReadBrightness captures a single frame and returns its mean
	// grayscale value.
	ReadBrightness() (float64, error)

	// Release tears down the capture handle. Idempotent.
	Release()
}

// VolumeSensor produces an ambient sound level in dB. Values are typically
// negative; closer to zero means louder.
type VolumeSensor interface {
	// MeasureVolumeDB records a short block of audio and returns its RMS
	// level in dB. Blocks for the duration of the block.
	MeasureVolumeDB() (float64, error)
}
