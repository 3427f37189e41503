// Package metrics exports the container's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts completed control-loop ticks.
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ccc_ticks_total",
			Help: "Total number of control loop ticks executed",
		},
	)

	// SensorErrors counts failed sensor reads per signal.
	SensorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccc_sensor_errors_total",
			Help: "Total number of failed sensor reads",
		},
		[]string{"signal"},
	)

	// CommandsPublished counts actuator commands accepted by the transport.
	CommandsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccc_commands_published_total",
			Help: "Total number of actuator commands published",
		},
		[]string{"destination", "payload"},
	)

	// CommandsSuppressed counts commands withheld by the throttle window.
	CommandsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccc_commands_suppressed_total",
			Help: "Total number of actuator commands suppressed by the throttle",
		},
		[]string{"destination"},
	)

	// PublishFailures counts transport-level publish failures.
	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ccc_publish_failures_total",
			Help: "Total number of failed MQTT publish attempts",
		},
		[]string{"destination"},
	)

	// SmoothedValue reports the current moving-average output per signal.
	SmoothedValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ccc_smoothed_value",
			Help: "Current smoothed sensor value (brightness 0-255, volume dB)",
		},
		[]string{"signal"},
	)

	// RSSIValue reports the latest cached RSSI reading in dBm.
	RSSIValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ccc_rssi_dbm",
			Help: "Latest RSSI reading received over MQTT",
		},
	)
)
