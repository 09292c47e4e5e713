package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxSpeedKmh != 100 {
		t.Errorf("Expected max speed 100, got %f", cfg.MaxSpeedKmh)
	}
	if cfg.ReplayWindow != 5*time.Minute {
		t.Errorf("Expected replay window 5m, got %v", cfg.ReplayWindow)
	}
	if cfg.LiveTTL != 5*time.Minute {
		t.Errorf("Expected live TTL 5m, got %v", cfg.LiveTTL)
	}
	if cfg.ColorMinPercent != 5 || cfg.ColorMaxPercent != 60 {
		t.Errorf("Expected color window 5-60, got %f-%f", cfg.ColorMinPercent, cfg.ColorMaxPercent)
	}
	if len(cfg.ColorBands) != 2 {
		t.Errorf("Expected 2 default bands, got %d", len(cfg.ColorBands))
	}
	if len(cfg.MLTargetLabels) != 1 || cfg.MLTargetLabels[0] != "boat" {
		t.Errorf("Expected target labels [boat], got %v", cfg.MLTargetLabels)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("MAX_SPEED_KMH", "80.5")
	t.Setenv("REPLAY_WINDOW_MINUTES", "10")
	t.Setenv("COLOR_ENABLED", "true")
	t.Setenv("ML_ENABLED", "false")
	t.Setenv("ML_TARGET_LABELS", "boat, ship ,,")
	t.Setenv("QR_BACKENDS", "zxing")
	t.Setenv("CAMERA_NAMES", "10.0.0.5=north, 10.0.0.6=south,broken")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxSpeedKmh != 80.5 {
		t.Errorf("Expected max speed 80.5, got %f", cfg.MaxSpeedKmh)
	}
	if cfg.ReplayWindow != 10*time.Minute {
		t.Errorf("Expected replay window 10m, got %v", cfg.ReplayWindow)
	}
	if !cfg.ColorEnabled || cfg.MLEnabled {
		t.Errorf("Expected color on and ML off, got color=%v ml=%v", cfg.ColorEnabled, cfg.MLEnabled)
	}
	if len(cfg.MLTargetLabels) != 2 || cfg.MLTargetLabels[1] != "ship" {
		t.Errorf("Expected [boat ship], got %v", cfg.MLTargetLabels)
	}
	if len(cfg.QRBackends) != 1 || cfg.QRBackends[0] != "zxing" {
		t.Errorf("Expected [zxing], got %v", cfg.QRBackends)
	}
	if cfg.CameraNames["10.0.0.5"] != "north" || cfg.CameraNames["10.0.0.6"] != "south" {
		t.Errorf("Unexpected camera names: %v", cfg.CameraNames)
	}
	if len(cfg.CameraNames) != 2 {
		t.Errorf("Expected 2 camera names, got %d", len(cfg.CameraNames))
	}
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("PORT", "abc")
	t.Setenv("ML_CONFIDENCE", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
	if cfg.MLConfidence != 0.3 {
		t.Errorf("Expected default confidence, got %f", cfg.MLConfidence)
	}
}

func TestLoadColorBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bands.yaml")
	content := `
bands:
  - label: RED
    ranges:
      - lower: [0, 100, 100]
        upper: [10, 255, 255]
      - lower: [160, 100, 100]
        upper: [180, 255, 255]
    min_percent: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write bands file: %v", err)
	}

	bands, err := LoadColorBands(path)
	if err != nil {
		t.Fatalf("LoadColorBands failed: %v", err)
	}
	if len(bands) != 1 || bands[0].Label != "RED" {
		t.Fatalf("Unexpected bands: %+v", bands)
	}
	if len(bands[0].Ranges) != 2 {
		t.Errorf("Expected 2 ranges, got %d", len(bands[0].Ranges))
	}
	if bands[0].Ranges[1].Lower[0] != 160 {
		t.Errorf("Expected second range hue 160, got %f", bands[0].Ranges[1].Lower[0])
	}
	if lo, hi := bands[0].Window(5, 60); lo != 2 || hi != 60 {
		t.Errorf("Expected window [2, 60], got [%f, %f]", lo, hi)
	}
}

func TestLoadColorBands_Invalid(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"empty.yaml":    "bands: []\n",
		"nolabel.yaml":  "bands:\n  - ranges:\n      - lower: [0,0,0]\n        upper: [1,1,1]\n",
		"noranges.yaml": "bands:\n  - label: X\n",
		"broken.yaml":   "bands: [",
		"window.yaml":   "bands:\n  - label: X\n    ranges:\n      - lower: [0,0,0]\n        upper: [1,1,1]\n    min_percent: 50\n    max_percent: 10\n",
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		if _, err := LoadColorBands(path); err == nil {
			t.Errorf("Expected error for %s", name)
		}
	}

	if _, err := LoadColorBands(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
