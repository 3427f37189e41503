// Package main implements the Classroom Control Container entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classroom-control/ccc/internal/audit"
	"github.com/classroom-control/ccc/internal/config"
	"github.com/classroom-control/ccc/internal/control"
	"github.com/classroom-control/ccc/internal/mqtt"
	"github.com/classroom-control/ccc/internal/policy"
	"github.com/classroom-control/ccc/internal/rssi"
	"github.com/classroom-control/ccc/internal/sensor"
	"github.com/classroom-control/ccc/internal/sensor/fake"
	"github.com/classroom-control/ccc/internal/sensor/gstcap"
	"github.com/classroom-control/ccc/internal/throttle"
	"github.com/classroom-control/ccc/internal/weblog"
)

const Version = "1.0.0"

func main() {
	log.Printf("Starting Classroom Control Container v%s", Version)

	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(cfg)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// Step 2: Initialize audit logger
	auditLogger, err := audit.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	log.Println("Audit logger initialized")

	// Step 3: Connect to the MQTT broker
	client, err := mqtt.Connect(cfg.BrokerURL, mqtt.ClientID("ccc-control"))
	if err != nil {
		log.Fatalf("Failed to connect to MQTT broker: %v", err)
	}
	log.Printf("Connected to MQTT broker at %s", cfg.BrokerURL)

	// Step 4: Create the command throttle over the broker connection
	commands := throttle.New(cfg.MinCommandInterval, commandPublisher(client, cfg))
	commands.SetAuditLogger(auditLogger)

	// Step 5: Open the sensors
	camera, microphone, micCloser, err := openSensors(cfg)
	if err != nil {
		log.Fatalf("Failed to open sensors: %v", err)
	}
	log.Println("Sensors ready")

	// Step 6: Optionally start the RSSI subscriber
	var rssiSource control.RSSISource
	var subscriber *rssi.Subscriber
	if cfg.ListenRSSI {
		subscriber = rssi.NewSubscriber(cfg.BrokerURL, cfg.RSSITopic)
		if err := subscriber.Start(); err != nil {
			log.Fatalf("Failed to start RSSI subscriber: %v", err)
		}
		rssiSource = subscriber
	}

	// Step 7: Start the web log mirror
	logBuffer := weblog.NewBuffer(cfg.LogBufferSize)
	webServer := weblog.NewServer(logBuffer)

	serverErr := make(chan error, 1)
	go func() {
		if err := webServer.Start(cfg.WebAddr); err != nil {
			serverErr <- fmt.Errorf("log mirror failed: %w", err)
		}
	}()
	log.Printf("Log mirror listening on %s", cfg.WebAddr)

	// Step 8: Build and run the control loop
	loop := control.NewLoop(control.Options{
		Camera:           camera,
		Microphone:       microphone,
		Commands:         commands,
		RSSI:             rssiSource,
		Status:           logBuffer,
		TickPeriod:       cfg.TickPeriod,
		WindowLength:     cfg.WindowLength,
		BrightnessBounds: policy.Bounds{Low: cfg.BrightnessLow, High: cfg.BrightnessHigh},
		VolumeBounds:     policy.Bounds{Low: cfg.VolumeLowDB, High: cfg.VolumeHighDB},
		Verbose:          cfg.Verbose,
	})

	loopDone := make(chan struct{})
	go func() {
		loop.Run()
		close(loopDone)
	}()

	log.Println("Classroom Control Container started successfully")

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		log.Printf("Server error: %v", err)
	}

	// Stop the control loop first so no further commands are emitted.
	loop.Stop()
	select {
	case <-loopDone:
		log.Println("Control loop stopped")
	case <-time.After(2 * cfg.TickPeriod):
		log.Println("Control loop did not stop in time")
	}

	if subscriber != nil {
		subscriber.Stop()
	}

	if micCloser != nil {
		micCloser()
	}

	client.Disconnect()
	log.Println("MQTT client disconnected")

	if err := auditLogger.Close(); err != nil {
		log.Printf("Error closing audit logger: %v", err)
	}
	log.Println("Audit logger closed")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Stop(ctx); err != nil {
		log.Printf("Error stopping log mirror: %v", err)
	} else {
		log.Println("Log mirror stopped gracefully")
	}

	log.Println("Classroom Control Container shutdown complete")
}

// applyFlags layers command-line flags on top of the env/file config.
// Flag defaults come from the loaded config, so an unset flag changes
// nothing.
func applyFlags(cfg *config.Config) {
	cameraIndex := flag.Int("camera-index", cfg.CameraIndex, "V4L2 camera device index")
	fakeSensors := flag.Bool("fake-sensors", cfg.FakeSensors, "use scripted sensors instead of capture hardware")
	verbose := flag.Bool("verbose", cfg.Verbose, "also log commands withheld by the throttle")
	listenRSSI := flag.Bool("listen-rssi", cfg.ListenRSSI, "subscribe to the wireless signal-strength topic")
	rssiTopic := flag.String("rssi-topic", cfg.RSSITopic, "signal-strength topic to subscribe to")
	flag.Parse()

	cfg.CameraIndex = *cameraIndex
	cfg.FakeSensors = *fakeSensors
	cfg.Verbose = *verbose
	cfg.ListenRSSI = *listenRSSI
	cfg.RSSITopic = *rssiTopic
}

// commandPublisher maps throttle destinations onto the configured topics.
func commandPublisher(client *mqtt.Client, cfg *config.Config) throttle.PublishFunc {
	return func(destination, payload string) error {
		switch destination {
		case control.DestinationLight:
			return client.Publish(cfg.LightTopic, payload)
		case control.DestinationSpeaker:
			return client.Publish(cfg.SpeakerTopic, payload)
		default:
			return fmt.Errorf("unknown command destination %q", destination)
		}
	}
}

// openSensors builds the configured sensor pair. With CCC_FAKE_SENSORS the
// container runs on scripted readings, useful on machines without capture
// hardware. The returned closer releases the microphone pipeline, if any.
func openSensors(cfg *config.Config) (sensor.BrightnessSensor, sensor.VolumeSensor, func(), error) {
	if cfg.FakeSensors {
		log.Println("Using fake sensors")
		return fake.NewCamera(), fake.NewMicrophone(), nil, nil
	}

	camera, err := gstcap.NewCamera(cfg.CameraIndex)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open camera %d: %w", cfg.CameraIndex, err)
	}

	microphone, err := gstcap.NewMicrophone(cfg.MicSampleRate, cfg.MicBlockDuration)
	if err != nil {
		camera.Release()
		return nil, nil, nil, fmt.Errorf("failed to open microphone: %w", err)
	}

	return camera, microphone, microphone.Close, nil
}
