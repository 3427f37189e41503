// Package control implements the container's core automation loop:
// sample both ambient signals, smooth them, evaluate the threshold policy,
// and emit rate-limited actuator commands.
//
// The loop body is strictly single-threaded: within one tick, brightness
// is sampled before volume and both before policy evaluation, and ticks
// never overlap. Shutdown is cooperative and observed between ticks only;
// a tick in progress always runs to completion.
package control

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/classroom-control/ccc/internal/metrics"
	"github.com/classroom-control/ccc/internal/policy"
	"github.com/classroom-control/ccc/internal/rssi"
	"github.com/classroom-control/ccc/internal/sensor"
	"github.com/classroom-control/ccc/internal/smoothing"
)

// State is the lifecycle state of the loop.
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Destination identifiers addressed through the throttle.
const (
	DestinationLight   = "light"
	DestinationSpeaker = "speaker"
)

// Signal labels used in logs and metrics.
const (
	SignalBrightness = "brightness"
	SignalVolume     = "volume"
)

// DefaultTickPeriod holds the loop cadence when none is configured.
const DefaultTickPeriod = 2 * time.Second

// CommandSink is the throttled command port.
type CommandSink interface {
	TryEmit(destination, payload string, now time.Time) bool
}

// RSSISource exposes the latest cached signal-strength snapshot.
type RSSISource interface {
	Latest() (rssi.Snapshot, bool)
}

// StatusSink receives the per-tick status line (the web log mirror).
type StatusSink interface {
	Append(line string)
}

// Options wires the loop's collaborators and tunables.
type Options struct {
	Camera     sensor.BrightnessSensor
	Microphone sensor.VolumeSensor
	Commands   CommandSink

	// Optional collaborators; absence is a valid state.
	RSSI   RSSISource
	Status StatusSink

	TickPeriod       time.Duration
	WindowLength     int
	BrightnessBounds policy.Bounds
	VolumeBounds     policy.Bounds
	Verbose          bool
}

// Loop runs the tick cycle until stopped.
type Loop struct {
	camera     sensor.BrightnessSensor
	microphone sensor.VolumeSensor
	commands   CommandSink
	rssiSource RSSISource
	status     StatusSink

	tickPeriod       time.Duration
	brightnessBounds policy.Bounds
	volumeBounds     policy.Bounds
	verbose          bool

	// Trackers are owned exclusively by the tick goroutine.
	brightness *smoothing.MovingAverage
	volume     *smoothing.MovingAverage

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop in the INITIALIZING state. Camera, Microphone,
// and Commands are required; zero-valued tunables fall back to defaults.
func NewLoop(opts Options) *Loop {
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.BrightnessBounds == (policy.Bounds{}) {
		opts.BrightnessBounds = policy.DefaultBrightness
	}
	if opts.VolumeBounds == (policy.Bounds{}) {
		opts.VolumeBounds = policy.DefaultVolume
	}

	l := &Loop{
		camera:           opts.Camera,
		microphone:       opts.Microphone,
		commands:         opts.Commands,
		rssiSource:       opts.RSSI,
		status:           opts.Status,
		tickPeriod:       opts.TickPeriod,
		brightnessBounds: opts.BrightnessBounds,
		volumeBounds:     opts.VolumeBounds,
		verbose:          opts.Verbose,
		brightness:       smoothing.NewMovingAverage(opts.WindowLength),
		volume:           smoothing.NewMovingAverage(opts.WindowLength),
		stop:             make(chan struct{}),
	}
	l.state.Store(int32(StateInitializing))
	return l
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stop requests a cooperative shutdown. Safe to call more than once and
// from any goroutine; the loop finishes its current tick first.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Run executes the tick loop until Stop is called, then releases the
// camera and returns. Run blocks the calling goroutine.
func (l *Loop) Run() {
	l.state.Store(int32(StateRunning))
	log.Printf("Control loop running (tick period %v)", l.tickPeriod)

	for {
		// Shutdown is observed between ticks only.
		select {
		case <-l.stop:
			l.shutdown()
			return
		default:
		}

		start := time.Now()
		l.tick(start)

		// Sleep the remainder of the period. When a tick overruns, the
		// next one starts immediately; missed time is not compensated.
		elapsed := time.Since(start)
		if remainder := l.tickPeriod - elapsed; remainder > 0 {
			select {
			case <-l.stop:
				l.shutdown()
				return
			case <-time.After(remainder):
			}
		}
	}
}

// shutdown releases loop-owned collaborators and reaches the terminal state.
func (l *Loop) shutdown() {
	l.state.Store(int32(StateShuttingDown))
	log.Println("Control loop shutting down")
	l.camera.Release()
	l.state.Store(int32(StateStopped))
}

// tick runs one full sample/smooth/decide/emit cycle.
func (l *Loop) tick(now time.Time) {
	metrics.TicksTotal.Inc()

	// 1) Brightness. A failed read leaves the tracker untouched and makes
	// the whole signal unavailable for this tick: no policy, no gauge,
	// N/A in the status line, even when the window still holds samples.
	rawBrightness, brightnessErr := l.camera.ReadBrightness()
	var avgBrightness float64
	haveBrightness := false
	if brightnessErr != nil {
		log.Printf("Error reading camera brightness: %v", brightnessErr)
		metrics.SensorErrors.WithLabelValues(SignalBrightness).Inc()
	} else {
		l.brightness.Push(rawBrightness)
		avgBrightness, haveBrightness = l.brightness.Current()
	}

	// 2) Volume, independent of the brightness outcome.
	rawVolume, volumeErr := l.microphone.MeasureVolumeDB()
	var avgVolume float64
	haveVolume := false
	if volumeErr != nil {
		log.Printf("Error measuring microphone volume: %v", volumeErr)
		metrics.SensorErrors.WithLabelValues(SignalVolume).Inc()
	} else {
		l.volume.Push(rawVolume)
		avgVolume, haveVolume = l.volume.Current()
	}

	// 3) Latest RSSI snapshot, when the subscriber is active.
	var snap rssi.Snapshot
	haveRSSI := false
	if l.rssiSource != nil {
		snap, haveRSSI = l.rssiSource.Latest()
	}

	if haveBrightness {
		metrics.SmoothedValue.WithLabelValues(SignalBrightness).Set(avgBrightness)
	}
	if haveVolume {
		metrics.SmoothedValue.WithLabelValues(SignalVolume).Set(avgVolume)
	}
	if haveRSSI {
		metrics.RSSIValue.Set(snap.Value)
	}

	// 4) One status line per tick, to the console and the web mirror.
	line := formatStatusLine(now,
		rawBrightness, avgBrightness, haveBrightness,
		rawVolume, avgVolume, haveVolume,
		snap, haveRSSI)
	log.Println(line)
	if l.status != nil {
		l.status.Append(line)
	}

	// 5) Policy evaluation, light first, then speaker.
	if haveBrightness {
		if dir, ok := l.brightnessBounds.Decide(avgBrightness); ok {
			l.emit(DestinationLight, dir, now)
		}
	}
	if haveVolume {
		if dir, ok := l.volumeBounds.Decide(avgVolume); ok {
			l.emit(DestinationSpeaker, dir, now)
		}
	}
}

// emit pushes a command through the throttle.
func (l *Loop) emit(destination string, dir policy.Direction, now time.Time) {
	if l.commands.TryEmit(destination, dir.Payload(), now) {
		log.Printf("Command published: %s -> %s (%s)", destination, dir.Payload(), dir)
	} else if l.verbose {
		log.Printf("Command withheld: %s -> %s (%s)", destination, dir.Payload(), dir)
	}
}

// isoTimestamp renders a UTC timestamp like 2025-12-01T10:47:06.241Z.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

// formatStatusLine builds the per-tick status line. An unavailable signal
// renders both its current and average fields as N/A.
func formatStatusLine(now time.Time,
	rawBrightness, avgBrightness float64, haveBrightness bool,
	rawVolume, avgVolume float64, haveVolume bool,
	snap rssi.Snapshot, haveRSSI bool) string {

	var b strings.Builder

	b.WriteString(isoTimestamp(now))
	b.WriteString(" | Brightness: current=")
	b.WriteString(formatValue(rawBrightness, haveBrightness, ""))
	b.WriteString(" avg=")
	b.WriteString(formatValue(avgBrightness, haveBrightness, ""))
	b.WriteString(" | Volume: current=")
	b.WriteString(formatValue(rawVolume, haveVolume, " dB"))
	b.WriteString(" avg=")
	b.WriteString(formatValue(avgVolume, haveVolume, ""))
	b.WriteString(" | RSSI: ")
	b.WriteString(formatValue(snap.Value, haveRSSI, " dBm"))
	b.WriteString(" (ts=")
	if haveRSSI && snap.Timestamp != "" {
		b.WriteString(snap.Timestamp)
	} else {
		b.WriteString("N/A")
	}
	b.WriteString(")")

	return b.String()
}

func formatValue(v float64, ok bool, unit string) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}
