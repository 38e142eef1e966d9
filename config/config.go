package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/sensorlink/errors"
)

// Config represents the complete application configuration.
type Config struct {
	Version     string            `json:"version"`
	Endpoint    EndpointConfig    `json:"endpoint"`
	Reconnect   ReconnectConfig   `json:"reconnect"`
	Heartbeat   HeartbeatConfig   `json:"heartbeat"`
	Session     SessionConfig     `json:"session"`
	Collection  CollectionConfig  `json:"collection"`
	Calibration CalibrationConfig `json:"calibration"`
	Metrics     MetricsConfig     `json:"metrics"`
	Log         LogConfig         `json:"log"`
}

// EndpointConfig identifies the remote detection service.
type EndpointConfig struct {
	URL                string `json:"url"`
	HandshakeTimeoutMs int    `json:"handshake_timeout_ms"`
}

// HandshakeTimeout returns the websocket handshake timeout.
func (e EndpointConfig) HandshakeTimeout() time.Duration {
	return time.Duration(e.HandshakeTimeoutMs) * time.Millisecond
}

// ReconnectConfig bounds automatic reconnection.
type ReconnectConfig struct {
	MaxAttempts int `json:"max_attempts"`
	DelayMs     int `json:"delay_ms"`
}

// Delay returns the fixed delay between reconnect attempts.
func (r ReconnectConfig) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// HeartbeatConfig sets the keepalive and status-poll cadence.
type HeartbeatConfig struct {
	PingIntervalMs   int `json:"ping_interval_ms"`
	StatusIntervalMs int `json:"status_interval_ms"`
}

// PingInterval returns the heartbeat cadence.
func (h HeartbeatConfig) PingInterval() time.Duration {
	return time.Duration(h.PingIntervalMs) * time.Millisecond
}

// StatusInterval returns the status-poll cadence.
func (h HeartbeatConfig) StatusInterval() time.Duration {
	return time.Duration(h.StatusIntervalMs) * time.Millisecond
}

// SessionConfig tunes the session controller.
type SessionConfig struct {
	FreshnessWindowMs int     `json:"freshness_window_ms"`
	DisplayBufferSize int     `json:"display_buffer_size"`
	DefaultThreshold  float64 `json:"default_threshold"`
}

// CollectionConfig holds the default per-capture parameters. The collector
// copies it at the start of each capture; it is immutable for the duration
// of one capture.
type CollectionConfig struct {
	SampleDurationMs   int     `json:"sample_duration_ms"`
	SampleRateHz       int     `json:"sample_rate_hz"`
	QualityThreshold   float64 `json:"quality_threshold"`
	MaxRetries         int     `json:"max_retries"`
	RetryDelayMs       int     `json:"retry_delay_ms"`
	InterSampleDelayMs int     `json:"inter_sample_delay_ms"`
}

// SampleDuration returns the capture window length.
func (c CollectionConfig) SampleDuration() time.Duration {
	return time.Duration(c.SampleDurationMs) * time.Millisecond
}

// RetryDelay returns the wait between failed capture attempts.
func (c CollectionConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// InterSampleDelay returns the wait between samples in a batch capture.
func (c CollectionConfig) InterSampleDelay() time.Duration {
	return time.Duration(c.InterSampleDelayMs) * time.Millisecond
}

// TargetReadings returns the number of readings a full capture window holds,
// floor(duration_seconds * rate).
func (c CollectionConfig) TargetReadings() int {
	return c.SampleDurationMs * c.SampleRateHz / 1000
}

// CalibrationConfig carries the hardware calibration.
type CalibrationConfig struct {
	Offset float64 `json:"offset"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `json:"level"` // debug, info, warn, error
}

// Default returns the configuration the system ships with. The reconnect
// and capture bounds are protocol defaults; changing them changes observable
// behavior against the remote service.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Endpoint: EndpointConfig{
			URL:                "ws://localhost:8000/socket",
			HandshakeTimeoutMs: 45000,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 5,
			DelayMs:     3000,
		},
		Heartbeat: HeartbeatConfig{
			PingIntervalMs:   30000,
			StatusIntervalMs: 60000,
		},
		Session: SessionConfig{
			FreshnessWindowMs: 2000,
			DisplayBufferSize: 50,
			DefaultThreshold:  0.5,
		},
		Collection: CollectionConfig{
			SampleDurationMs:   2000,
			SampleRateHz:       10,
			QualityThreshold:   0.3,
			MaxRetries:         3,
			RetryDelayMs:       500,
			InterSampleDelayMs: 200,
		},
		Calibration: CalibrationConfig{
			Offset: 0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path, applies environment
// overrides, and validates the result. A missing path yields the defaults
// (still subject to overrides and validation).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "read config file")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse config file")
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override the fields that
// vary between installations without editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SENSORLINK_ENDPOINT_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("SENSORLINK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SENSORLINK_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Metrics.Port = port
		}
	}
	if v := os.Getenv("SENSORLINK_CALIBRATION_OFFSET"); v != "" {
		if offset, err := strconv.ParseFloat(v, 64); err == nil {
			c.Calibration.Offset = offset
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var problems []string

	if c.Endpoint.URL == "" {
		problems = append(problems, "endpoint.url is required")
	}
	if c.Reconnect.MaxAttempts < 1 {
		problems = append(problems, "reconnect.max_attempts must be >= 1")
	}
	if c.Reconnect.DelayMs < 0 {
		problems = append(problems, "reconnect.delay_ms must be >= 0")
	}
	if c.Heartbeat.PingIntervalMs <= 0 {
		problems = append(problems, "heartbeat.ping_interval_ms must be > 0")
	}
	if c.Heartbeat.StatusIntervalMs <= 0 {
		problems = append(problems, "heartbeat.status_interval_ms must be > 0")
	}
	if c.Session.FreshnessWindowMs <= 0 {
		problems = append(problems, "session.freshness_window_ms must be > 0")
	}
	if c.Session.DisplayBufferSize <= 0 {
		problems = append(problems, "session.display_buffer_size must be > 0")
	}
	if c.Session.DefaultThreshold < 0 || c.Session.DefaultThreshold > 1 {
		problems = append(problems, "session.default_threshold must be in [0,1]")
	}
	if c.Collection.SampleDurationMs <= 0 {
		problems = append(problems, "collection.sample_duration_ms must be > 0")
	}
	if c.Collection.SampleRateHz <= 0 {
		problems = append(problems, "collection.sample_rate_hz must be > 0")
	}
	if c.Collection.QualityThreshold < 0 || c.Collection.QualityThreshold > 1 {
		problems = append(problems, "collection.quality_threshold must be in [0,1]")
	}
	if c.Collection.MaxRetries < 1 {
		problems = append(problems, "collection.max_retries must be >= 1")
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		problems = append(problems, "metrics.port must be a valid port")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug/info/warn/error", c.Log.Level))
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%d problem(s): %v", len(problems), problems),
			"config", "Validate", "check configuration")
	}
	return nil
}
