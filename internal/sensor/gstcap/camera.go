// Package gstcap implements the camera and microphone sensors on top of
// GStreamer appsink pipelines.
//
// Both sensors keep a live pipeline with max-buffers=1 and drop=true, so a
// read always observes the freshest capture instead of a backlog. Capture
// failures surface as the normalized sensor errors and never tear the
// pipeline down; the next tick simply tries again.
package gstcap

import (
	"fmt"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/classroom-control/ccc/internal/sensor"
)

// Camera reads single frames from a V4L2 device and reports their mean
// grayscale value in [0, 255].
type Camera struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	released bool
}

// NewCamera opens the camera at the given V4L2 index and starts its
// capture pipeline:
//
//	v4l2src → videoconvert → capsfilter(GRAY8) → appsink
//
// Grayscale conversion happens inside the pipeline, so a pulled buffer is
// one byte per pixel and the brightness is a plain byte mean.
func NewCamera(cameraIndex int) (*Camera, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create camera pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", fmt.Sprintf("/dev/video%d", cameraIndex))

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=GRAY8"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1) // Keep only the latest frame
	appsink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(src, converter, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link camera pipeline elements: %w", err)
	}

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("could not open camera index %d: %w", cameraIndex, err)
	}

	return &Camera{pipeline: pipeline, sink: appsink}, nil
}

// ReadBrightness pulls one frame and returns its mean grayscale value.
func (c *Camera) ReadBrightness() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return 0, sensor.ErrClosed
	}

	sample := c.sink.PullSample()
	if sample == nil {
		return 0, sensor.ErrNoFrame
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return 0, sensor.ErrNoFrame
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return 0, sensor.ErrNoFrame
	}

	var sum uint64
	for _, b := range data {
		sum += uint64(b)
	}
	n := len(data)
	buffer.Unmap()

	return float64(sum) / float64(n), nil
}

// Release stops the pipeline and frees the device. Idempotent.
func (c *Camera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	c.released = true
	_ = c.pipeline.SetState(gst.StateNull)
}
