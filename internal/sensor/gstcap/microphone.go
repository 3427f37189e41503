package gstcap

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/classroom-control/ccc/internal/sensor"
)

// Default microphone capture parameters.
const (
	DefaultSampleRate    = 16000
	DefaultBlockDuration = 500 * time.Millisecond
)

// rmsFloor keeps the log out of -Inf on digital silence.
const rmsFloor = 1e-12

// Microphone measures ambient sound level from the default audio source.
type Microphone struct {
	pipeline   *gst.Pipeline
	sink       *app.Sink
	sampleRate int
	blockSize  int // samples per measurement window
}

// NewMicrophone opens the default audio source and starts its capture
// pipeline:
//
//	autoaudiosrc → audioconvert → audioresample → capsfilter(F32LE mono) → appsink
//
// A sampleRate of zero or less and a blockDuration of zero or less fall
// back to the defaults (16 kHz, 0.5 s).
func NewMicrophone(sampleRate int, blockDuration time.Duration) (*Microphone, error) {
	gst.Init(nil)

	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if blockDuration <= 0 {
		blockDuration = DefaultBlockDuration
	}

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create microphone pipeline: %w", err)
	}

	src, err := gst.NewElement("autoaudiosrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create autoaudiosrc: %w", err)
	}

	converter, err := gst.NewElement("audioconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create audioconvert: %w", err)
	}

	resample, err := gst.NewElement("audioresample")
	if err != nil {
		return nil, fmt.Errorf("failed to create audioresample: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsStr := fmt.Sprintf("audio/x-raw,format=F32LE,channels=1,rate=%d", sampleRate)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)

	pipeline.AddMany(src, converter, resample, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(src, converter, resample, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link microphone pipeline elements: %w", err)
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("could not open audio source: %w", err)
	}

	return &Microphone{
		pipeline:   pipeline,
		sink:       appsink,
		sampleRate: sampleRate,
		blockSize:  int(float64(sampleRate) * blockDuration.Seconds()),
	}, nil
}

// MeasureVolumeDB blocks until one measurement window of audio has been
// captured and returns its RMS level in dB (negative; closer to zero is
// louder).
func (m *Microphone) MeasureVolumeDB() (float64, error) {
	var sumSquares float64
	collected := 0

	for collected < m.blockSize {
		sample := m.sink.PullSample()
		if sample == nil {
			return 0, sensor.ErrNoAudio
		}

		buffer := sample.GetBuffer()
		if buffer == nil {
			return 0, sensor.ErrNoAudio
		}

		mapInfo := buffer.Map(gst.MapRead)
		data := mapInfo.Bytes()
		for i := 0; i+4 <= len(data); i += 4 {
			v := math.Float32frombits(binary.LittleEndian.Uint32(data[i : i+4]))
			sumSquares += float64(v) * float64(v)
			collected++
		}
		buffer.Unmap()
	}

	if collected == 0 {
		return 0, sensor.ErrNoAudio
	}

	rms := math.Sqrt(sumSquares/float64(collected)) + rmsFloor
	return 20 * math.Log10(rms), nil
}

// Close stops the capture pipeline.
func (m *Microphone) Close() {
	_ = m.pipeline.SetState(gst.StateNull)
}
