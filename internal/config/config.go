package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/alert-triage/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SQLitePath    string
	QueueCapacity int

	// Kafka intake/fan-out configuration.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string
	KafkaEventTopic  string
	KafkaGroupID     string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Correlation tuning. Heuristic constants, kept configurable.
	SectorGridDegrees  float64
	SensorWindow       time.Duration
	SensorRadiusKm     float64
	SensorQueryLimit   int
	FusionWeights      domain.FusionWeights
	SeverityThresholds domain.SeverityThresholds

	CandidateListLimit int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	sensorWindow, err := parseDuration("SENSOR_WINDOW", domain.DefaultSensorWindow)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	weights := domain.DefaultFusionWeights()
	weights.Hazard = parseFloat("FUSE_HAZARD_WEIGHT", weights.Hazard)
	weights.Urgency = parseFloat("FUSE_URGENCY_WEIGHT", weights.Urgency)
	weights.Sensor = parseFloat("FUSE_SENSOR_WEIGHT", weights.Sensor)
	weights.Geo = parseFloat("FUSE_GEO_WEIGHT", weights.Geo)

	thresholds := domain.DefaultSeverityThresholds()
	thresholds.Critical = parseFloat("SEVERITY_CRITICAL_THRESHOLD", thresholds.Critical)
	thresholds.Warning = parseFloat("SEVERITY_WARNING_THRESHOLD", thresholds.Warning)

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SQLitePath:    sharedcfg.EnvOrDefault("SQLITE_PATH", "triage.db"),
		QueueCapacity: parseInt("QUEUE_CAPACITY", 256),

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "community-reports"),
		KafkaEventTopic:  sharedcfg.EnvOrDefault("KAFKA_EVENT_TOPIC", "alert-events"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "alert-triage"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseInt("MAPBOX_CACHE_SIZE", 1000),

		SectorGridDegrees:  parseFloat("SECTOR_GRID_DEGREES", domain.DefaultSectorGrid),
		SensorWindow:       sensorWindow,
		SensorRadiusKm:     parseFloat("SENSOR_RADIUS_KM", domain.DefaultSensorRadiusKm),
		SensorQueryLimit:   parseInt("SENSOR_QUERY_LIMIT", domain.DefaultSensorQueryLimit),
		FusionWeights:      weights,
		SeverityThresholds: thresholds,

		CandidateListLimit: parseInt("CANDIDATE_LIST_LIMIT", 100),
	}

	if cfg.SQLitePath == "" {
		return nil, errors.New("SQLITE_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.SectorGridDegrees <= 0 {
		return nil, errors.New("SECTOR_GRID_DEGREES must be positive")
	}
	if cfg.SensorRadiusKm <= 0 {
		return nil, errors.New("SENSOR_RADIUS_KM must be positive")
	}

	return cfg, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 {
			return v
		}
	}
	return fallback
}
