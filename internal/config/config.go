// Package config implements the configuration store for the Classroom
// Control Container.
//
// Configuration is assembled from baked-in defaults, CCC_* environment
// overrides, and an optional config.json, then validated. There is no
// persisted state beyond that; everything is a process-start parameter.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the container reads at startup.
type Config struct {
	// Messaging
	BrokerURL    string `json:"brokerUrl"`
	LightTopic   string `json:"lightTopic"`
	SpeakerTopic string `json:"speakerTopic"`

	// RSSI subscription (optional)
	ListenRSSI bool   `json:"listenRssi"`
	RSSITopic  string `json:"rssiTopic"`

	// Sensors
	CameraIndex      int           `json:"cameraIndex"`
	FakeSensors      bool          `json:"fakeSensors"`
	MicSampleRate    int           `json:"micSampleRate"`
	MicBlockDuration time.Duration `json:"micBlockDuration"`

	// Control loop
	TickPeriod         time.Duration `json:"tickPeriod"`
	WindowLength       int           `json:"windowLength"`
	MinCommandInterval time.Duration `json:"minCommandInterval"`
	BrightnessLow      float64       `json:"brightnessLow"`
	BrightnessHigh     float64       `json:"brightnessHigh"`
	VolumeLowDB        float64       `json:"volumeLowDb"`
	VolumeHighDB       float64       `json:"volumeHighDb"`

	// Web log mirror
	WebAddr       string `json:"webAddr"`
	LogBufferSize int    `json:"logBufferSize"`

	// Logging
	Verbose bool   `json:"verbose"`
	LogDir  string `json:"logDir"`
}

// Default returns the baked-in baseline configuration.
func Default() *Config {
	return &Config{
		BrokerURL:    "tcp://localhost:1883",
		LightTopic:   "smartclassroom/light_cmd",
		SpeakerTopic: "smartclassroom/speaker_cmd",

		ListenRSSI: false,
		RSSITopic:  "RSSI",

		CameraIndex:      0,
		FakeSensors:      false,
		MicSampleRate:    16000,
		MicBlockDuration: 500 * time.Millisecond,

		TickPeriod:         2 * time.Second,
		WindowLength:       10,
		MinCommandInterval: 5 * time.Second,
		BrightnessLow:      80.0,
		BrightnessHigh:     180.0,
		VolumeLowDB:        -40.0,
		VolumeHighDB:       -20.0,

		WebAddr:       ":5000",
		LogBufferSize: 50,

		Verbose: false,
		LogDir:  "logs",
	}
}

// Load merges Default() + CCC_* env overrides + optional config.json, then
// validates the result.
func Load() (*Config, error) {
	config := Default()

	applyEnvOverrides(config)

	if _, err := os.Stat("config.json"); err == nil {
		fileConfig, err := loadFromFile("config.json")
		if err != nil {
			return nil, fmt.Errorf("failed to load config.json: %w", err)
		}
		config = mergeConfigs(config, fileConfig)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies CCC_* environment variables to the config.
func applyEnvOverrides(config *Config) {
	config.BrokerURL = GetEnvVar("CCC_BROKER_URL", config.BrokerURL)
	config.LightTopic = GetEnvVar("CCC_LIGHT_TOPIC", config.LightTopic)
	config.SpeakerTopic = GetEnvVar("CCC_SPEAKER_TOPIC", config.SpeakerTopic)

	config.ListenRSSI = GetEnvBool("CCC_LISTEN_RSSI", config.ListenRSSI)
	config.RSSITopic = GetEnvVar("CCC_RSSI_TOPIC", config.RSSITopic)

	config.CameraIndex = GetEnvInt("CCC_CAMERA_INDEX", config.CameraIndex)
	config.FakeSensors = GetEnvBool("CCC_FAKE_SENSORS", config.FakeSensors)
	config.MicSampleRate = GetEnvInt("CCC_MIC_SAMPLE_RATE", config.MicSampleRate)
	config.MicBlockDuration = GetEnvDuration("CCC_MIC_BLOCK_DURATION", config.MicBlockDuration)

	config.TickPeriod = GetEnvDuration("CCC_TICK_PERIOD", config.TickPeriod)
	config.WindowLength = GetEnvInt("CCC_WINDOW_LENGTH", config.WindowLength)
	config.MinCommandInterval = GetEnvDuration("CCC_MIN_COMMAND_INTERVAL", config.MinCommandInterval)
	config.BrightnessLow = GetEnvFloat("CCC_BRIGHTNESS_LOW", config.BrightnessLow)
	config.BrightnessHigh = GetEnvFloat("CCC_BRIGHTNESS_HIGH", config.BrightnessHigh)
	config.VolumeLowDB = GetEnvFloat("CCC_VOLUME_LOW_DB", config.VolumeLowDB)
	config.VolumeHighDB = GetEnvFloat("CCC_VOLUME_HIGH_DB", config.VolumeHighDB)

	config.WebAddr = GetEnvVar("CCC_WEB_ADDR", config.WebAddr)
	config.LogBufferSize = GetEnvInt("CCC_LOG_BUFFER_SIZE", config.LogBufferSize)

	config.Verbose = GetEnvBool("CCC_VERBOSE", config.Verbose)
	config.LogDir = GetEnvVar("CCC_LOG_DIR", config.LogDir)
}

// loadFromFile loads configuration overrides from a JSON file.
func loadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// mergeConfigs merges file configuration with current configuration.
// Non-zero file values take precedence.
func mergeConfigs(current, file *Config) *Config {
	merged := *current

	if file.BrokerURL != "" {
		merged.BrokerURL = file.BrokerURL
	}
	if file.LightTopic != "" {
		merged.LightTopic = file.LightTopic
	}
	if file.SpeakerTopic != "" {
		merged.SpeakerTopic = file.SpeakerTopic
	}
	if file.RSSITopic != "" {
		merged.RSSITopic = file.RSSITopic
	}
	if file.CameraIndex != 0 {
		merged.CameraIndex = file.CameraIndex
	}
	if file.MicSampleRate != 0 {
		merged.MicSampleRate = file.MicSampleRate
	}
	if file.MicBlockDuration != 0 {
		merged.MicBlockDuration = file.MicBlockDuration
	}
	if file.TickPeriod != 0 {
		merged.TickPeriod = file.TickPeriod
	}
	if file.WindowLength != 0 {
		merged.WindowLength = file.WindowLength
	}
	if file.MinCommandInterval != 0 {
		merged.MinCommandInterval = file.MinCommandInterval
	}
	if file.BrightnessLow != 0 {
		merged.BrightnessLow = file.BrightnessLow
	}
	if file.BrightnessHigh != 0 {
		merged.BrightnessHigh = file.BrightnessHigh
	}
	if file.VolumeLowDB != 0 {
		merged.VolumeLowDB = file.VolumeLowDB
	}
	if file.VolumeHighDB != 0 {
		merged.VolumeHighDB = file.VolumeHighDB
	}
	if file.WebAddr != "" {
		merged.WebAddr = file.WebAddr
	}
	if file.LogBufferSize != 0 {
		merged.LogBufferSize = file.LogBufferSize
	}
	if file.LogDir != "" {
		merged.LogDir = file.LogDir
	}

	return &merged
}

// Validate rejects configurations the loop cannot run with.
func Validate(config *Config) error {
	if config.BrokerURL == "" {
		return fmt.Errorf("broker URL must not be empty")
	}
	if config.LightTopic == "" || config.SpeakerTopic == "" {
		return fmt.Errorf("actuator topics must not be empty")
	}
	if config.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %v", config.TickPeriod)
	}
	if config.WindowLength <= 0 {
		return fmt.Errorf("window length must be positive, got %d", config.WindowLength)
	}
	if config.MinCommandInterval < 0 {
		return fmt.Errorf("min command interval must not be negative, got %v", config.MinCommandInterval)
	}
	if config.BrightnessLow >= config.BrightnessHigh {
		return fmt.Errorf("brightness low bound %.1f must be below high bound %.1f",
			config.BrightnessLow, config.BrightnessHigh)
	}
	if config.VolumeLowDB >= config.VolumeHighDB {
		return fmt.Errorf("volume low bound %.1f must be below high bound %.1f",
			config.VolumeLowDB, config.VolumeHighDB)
	}
	if config.LogBufferSize <= 0 {
		return fmt.Errorf("log buffer size must be positive, got %d", config.LogBufferSize)
	}
	if config.CameraIndex < 0 {
		return fmt.Errorf("camera index must not be negative, got %d", config.CameraIndex)
	}
	return nil
}

// GetEnvVar returns the value of an environment variable with a default.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration returns the value of an environment variable as a duration with a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvFloat returns the value of an environment variable as a float64 with a default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an int with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvBool returns the value of an environment variable as a bool with a default.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
