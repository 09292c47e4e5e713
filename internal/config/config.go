package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               int
	CamerasPort        int
	Password           string
	DatabasePath       string
	ImageDirectory     string
	LiveDirectory      string
	LiveTTL            time.Duration
	LogDirectory       string
	ProcessingWorkers  int               // Number of frame processing goroutines
	ProcessingInterval int               // Authenticate every Nth camera frame (1 = every frame)
	MotionThreshold    int               // Changed pixels needed to treat a camera frame as moving
	CameraNames        map[string]string // UDP source IP -> camera name

	QRBackends []string // Ordered decoder backends: gocv, zxing, none

	ColorEnabled    bool
	ColorBandsFile  string
	ColorMinPercent float64
	ColorMaxPercent float64
	ColorBands      []ColorBand

	MLEnabled         bool
	ModelPath         string
	ConfigPath        string
	MLTargetLabels    []string
	MLConfidence      float64
	MaxSpeedKmh       float64
	ReplayWindow      time.Duration
	MQTTBroker        string
	MQTTTopic         string
	MQTTEncoding      string // json or msgpack
	MQTTClientID      string
	EventsToWebsocket bool
}

// Load reads configuration from the environment, honouring a .env file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8080),
		CamerasPort:        getEnvAsInt("CAMERAS_PORT", 9000),
		Password:           getEnv("PASSWORD", "oceanguard"),
		DatabasePath:       getEnv("DB_PATH", filepath.Join(".", "data", "oceanguard.db")),
		ImageDirectory:     getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		LiveDirectory:      getEnv("LIVE_DIR", filepath.Join(".", "images", "live")),
		LiveTTL:            time.Duration(getEnvAsInt("LIVE_TTL_SECONDS", 300)) * time.Second,
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ProcessingWorkers:  getEnvAsInt("PROCESSING_WORKERS", 3),
		ProcessingInterval: getEnvAsInt("PROCESSING_INTERVAL", 3),
		MotionThreshold:    getEnvAsInt("MOTION_THRESHOLD", 10000),
		CameraNames:        parseCameraNames(getEnv("CAMERA_NAMES", "")),

		QRBackends: getEnvAsList("QR_BACKENDS", []string{"gocv", "zxing"}),

		ColorEnabled:    getEnvAsBool("COLOR_ENABLED", false),
		ColorBandsFile:  getEnv("COLOR_BANDS_FILE", ""),
		ColorMinPercent: getEnvAsFloat("COLOR_MIN_PERCENT", 5.0),
		ColorMaxPercent: getEnvAsFloat("COLOR_MAX_PERCENT", 60.0),

		MLEnabled:      getEnvAsBool("ML_ENABLED", true),
		ModelPath:      getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:     getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		MLTargetLabels: getEnvAsList("ML_TARGET_LABELS", []string{"boat"}),
		MLConfidence:   getEnvAsFloat("ML_CONFIDENCE", 0.3),

		MaxSpeedKmh:  getEnvAsFloat("MAX_SPEED_KMH", 100),
		ReplayWindow: time.Duration(getEnvAsInt("REPLAY_WINDOW_MINUTES", 5)) * time.Minute,

		MQTTBroker:        getEnv("MQTT_BROKER", ""),
		MQTTTopic:         getEnv("MQTT_TOPIC", "oceanguard/events"),
		MQTTEncoding:      getEnv("MQTT_ENCODING", "json"),
		MQTTClientID:      getEnv("MQTT_CLIENT_ID", "oceanguard"),
		EventsToWebsocket: getEnvAsBool("EVENTS_TO_WEBSOCKET", true),
	}

	bands := DefaultColorBands()
	if cfg.ColorBandsFile != "" {
		loaded, err := LoadColorBands(cfg.ColorBandsFile)
		if err != nil {
			return nil, err
		}
		bands = loaded
	}
	cfg.ColorBands = bands

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseCameraNames parses "192.168.1.10=north,192.168.1.11=south".
func parseCameraNames(value string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		ip, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || ip == "" || name == "" {
			continue
		}
		names[ip] = name
	}
	return names
}
