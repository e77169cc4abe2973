// Package config loads and validates the structured configuration document
// described in the spec's external interfaces section.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"faceworker/internal/domain"
)

type ProcessingConfig struct {
	CPUBatchSize int   `yaml:"cpu_batch_size"`
	GPUBatchSize int   `yaml:"gpu_batch_size"`
	GPUDevices   []int `yaml:"gpu_devices"`
}

type PerformanceConfig struct {
	DetectionSkipFrames int `yaml:"detection_skip_frames"`
	InferenceSize       int `yaml:"inference_size"`
}

type YoloConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	IoUThreshold        float64 `yaml:"iou_threshold"`
}

type TrackingConfig struct {
	IoUThreshold float64 `yaml:"iou_threshold"`
	MaxAge       int     `yaml:"max_age"`
	MinHits      int     `yaml:"min_hits"`
	MaxFrames    int     `yaml:"max_frames"`
}

type FilterConfig struct {
	MinBBoxWidth   int     `yaml:"min_bbox_width"`
	MinConfidence  float64 `yaml:"min_confidence"`
}

type TrackConfig struct {
	MinMovementPercentage float64 `yaml:"min_movement_percentage"`
	MinMovementPixels     float64 `yaml:"min_movement_pixels"`
	DistanceFraction      float64 `yaml:"distance_fraction"`
}

type QueuesConfig struct {
	FrameQueueMaxSize    int `yaml:"frame_queue_max_size"`
	EventQueueMaxSize    int `yaml:"event_queue_max_size"`
	FindfaceQueueMaxSize int `yaml:"findface_queue_max_size"`
}

type CameraConfig struct {
	Prefix             string `yaml:"prefix"`
	RTSPReconnectDelay int    `yaml:"rtsp_reconnect_delay"`
	RTSPMaxRetries     int    `yaml:"rtsp_max_retries"`
}

type LoggingConfig struct {
	QueueSize int    `yaml:"queue_size"`
	FilePath  string `yaml:"file_path"`
}

type AdminConfig struct {
	Addr string `yaml:"addr"`
}

type AuditConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type FindfaceConfig struct {
	BaseURL        string `yaml:"base_url"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	UUID           string `yaml:"uuid"`
	MaxConnections int    `yaml:"max_connections"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DetectorConfig struct {
	CascadePath string `yaml:"cascade_path"`
}

// Config mirrors the document described in spec.md §6, plus the ambient
// sections (logging, admin, audit) this implementation adds.
type Config struct {
	ProcessingSection ProcessingConfig  `yaml:"processing"`
	PerformanceSec    PerformanceConfig `yaml:"performance"`
	Yolo              YoloConfig        `yaml:"yolo"`
	Tracking          TrackingConfig    `yaml:"tracking"`
	Filter            FilterConfig      `yaml:"filter"`
	Track             TrackConfig       `yaml:"track"`
	Queues            QueuesConfig      `yaml:"queues"`
	Logging           LoggingConfig     `yaml:"logging"`
	Camera            CameraConfig      `yaml:"camera"`
	Admin             AdminConfig       `yaml:"admin"`
	Audit             AuditConfig       `yaml:"audit"`
	Findface          FindfaceConfig    `yaml:"findface"`
	Detector          DetectorConfig    `yaml:"detector"`

	GCIntervalSeconds   float64 `yaml:"gc_interval_seconds"`
	TracksTTLSeconds    int     `yaml:"tracks_ttl_seconds"`
	FindfaceWorkers     int     `yaml:"findface_workers"`
	DrainTimeoutSeconds int     `yaml:"drain_timeout_seconds"`

	DatabaseURL string `yaml:"database_url"`
}

// Defaults returns the configuration with every default value from spec.md §6.
func Defaults() *Config {
	return &Config{
		ProcessingSection: ProcessingConfig{CPUBatchSize: 1, GPUBatchSize: 32, GPUDevices: []int{0}},
		PerformanceSec:    PerformanceConfig{DetectionSkipFrames: 2, InferenceSize: 640},
		Yolo:              YoloConfig{ConfidenceThreshold: 0.5, IoUThreshold: 0.45},
		Tracking:          TrackingConfig{IoUThreshold: 0.3, MaxAge: 30, MinHits: 3, MaxFrames: 500},
		Filter:            FilterConfig{MinBBoxWidth: 30, MinConfidence: 0.5},
		Track:             TrackConfig{MinMovementPercentage: 0.1, MinMovementPixels: 50.0, DistanceFraction: 0.07},
		Queues:            QueuesConfig{FrameQueueMaxSize: 100, EventQueueMaxSize: 1000, FindfaceQueueMaxSize: 100},
		Camera:            CameraConfig{Prefix: "", RTSPReconnectDelay: 5, RTSPMaxRetries: 3},
		Logging:           LoggingConfig{QueueSize: 10000, FilePath: "application.log"},
		Admin:             AdminConfig{Addr: ":8088"},
		Audit:             AuditConfig{Topic: "faceworker.audit"},
		Findface:          FindfaceConfig{MaxConnections: 20, TimeoutSeconds: 10},
		Detector:          DetectorConfig{CascadePath: "models/haarcascade_frontalface_default.xml"},

		GCIntervalSeconds:   5.0,
		TracksTTLSeconds:    30,
		FindfaceWorkers:     2,
		DrainTimeoutSeconds: 10,
	}
}

// Load reads and parses the YAML document at path, overlaying it on top of
// Defaults. A missing file is a ConfigError, not a silent fallback — the CLI
// surface treats that as exit code 1.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Field: "path", Err: err}
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, &domain.ConfigError{Field: "yaml", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks internal consistency of the loaded configuration.
func (c *Config) Validate() error {
	if c.Queues.FrameQueueMaxSize <= 0 {
		return &domain.ConfigError{Field: "queues.frame_queue_max_size", Err: fmt.Errorf("must be positive")}
	}
	if c.Queues.EventQueueMaxSize <= 0 {
		return &domain.ConfigError{Field: "queues.event_queue_max_size", Err: fmt.Errorf("must be positive")}
	}
	if c.Queues.FindfaceQueueMaxSize <= 0 {
		return &domain.ConfigError{Field: "queues.findface_queue_max_size", Err: fmt.Errorf("must be positive")}
	}
	if c.FindfaceWorkers <= 0 {
		return &domain.ConfigError{Field: "findface_workers", Err: fmt.Errorf("must be positive")}
	}
	if c.Tracking.MaxAge <= 0 {
		return &domain.ConfigError{Field: "tracking.max_age", Err: fmt.Errorf("must be positive")}
	}
	return nil
}

// GCInterval returns gc_interval_seconds as a time.Duration.
func (c *Config) GCInterval() time.Duration {
	return time.Duration(c.GCIntervalSeconds * float64(time.Second))
}

// TracksTTL returns tracks_ttl_seconds as a time.Duration.
func (c *Config) TracksTTL() time.Duration {
	return time.Duration(c.TracksTTLSeconds) * time.Second
}

// DrainTimeout returns drain_timeout_seconds as a time.Duration.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSeconds) * time.Second
}

// RTSPReconnectDelay returns camera.rtsp_reconnect_delay as a time.Duration.
func (c *Config) RTSPReconnectDelay() time.Duration {
	return time.Duration(c.Camera.RTSPReconnectDelay) * time.Second
}

// FindfaceTimeout returns findface.timeout_seconds as a time.Duration.
func (c *Config) FindfaceTimeout() time.Duration {
	return time.Duration(c.Findface.TimeoutSeconds) * time.Second
}
