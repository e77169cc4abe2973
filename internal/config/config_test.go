package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
tracking:
  min_hits: 7
camera:
  prefix: "lobby-"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Tracking.MinHits != 7 {
		t.Errorf("expected overridden min_hits=7, got %d", cfg.Tracking.MinHits)
	}
	if cfg.Camera.Prefix != "lobby-" {
		t.Errorf("expected overridden camera prefix, got %q", cfg.Camera.Prefix)
	}
	// Untouched keys should keep their defaults.
	if cfg.Tracking.MaxAge != 30 {
		t.Errorf("expected default max_age=30 to survive a partial overlay, got %d", cfg.Tracking.MaxAge)
	}
	if cfg.Queues.FrameQueueMaxSize != 100 {
		t.Errorf("expected default frame_queue_max_size=100 to survive, got %d", cfg.Queues.FrameQueueMaxSize)
	}
}

func TestValidateRejectsNonPositiveQueueSizes(t *testing.T) {
	cfg := Defaults()
	cfg.Queues.FrameQueueMaxSize = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a validation error for a zero frame queue size")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("expected the default configuration to validate cleanly, got %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Defaults()
	cfg.GCIntervalSeconds = 2.5
	cfg.TracksTTLSeconds = 30
	cfg.DrainTimeoutSeconds = 10
	cfg.Camera.RTSPReconnectDelay = 5

	if cfg.GCInterval().Seconds() != 2.5 {
		t.Errorf("unexpected GCInterval: %v", cfg.GCInterval())
	}
	if cfg.TracksTTL().Seconds() != 30 {
		t.Errorf("unexpected TracksTTL: %v", cfg.TracksTTL())
	}
	if cfg.DrainTimeout().Seconds() != 10 {
		t.Errorf("unexpected DrainTimeout: %v", cfg.DrainTimeout())
	}
	if cfg.RTSPReconnectDelay().Seconds() != 5 {
		t.Errorf("unexpected RTSPReconnectDelay: %v", cfg.RTSPReconnectDelay())
	}
}
