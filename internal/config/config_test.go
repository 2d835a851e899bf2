package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/alert-triage/internal/domain"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "triage.db", cfg.SQLitePath)
	assert.Equal(t, 256, cfg.QueueCapacity)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "community-reports", cfg.KafkaReportTopic)
	assert.Equal(t, "alert-events", cfg.KafkaEventTopic)
	assert.Equal(t, "alert-triage", cfg.KafkaGroupID)

	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)

	assert.Equal(t, domain.DefaultSectorGrid, cfg.SectorGridDegrees)
	assert.Equal(t, domain.DefaultSensorWindow, cfg.SensorWindow)
	assert.Equal(t, domain.DefaultSensorRadiusKm, cfg.SensorRadiusKm)
	assert.Equal(t, domain.DefaultSensorQueryLimit, cfg.SensorQueryLimit)
	assert.Equal(t, domain.DefaultFusionWeights(), cfg.FusionWeights)
	assert.Equal(t, domain.DefaultSeverityThresholds(), cfg.SeverityThresholds)
	assert.Equal(t, 100, cfg.CandidateListLimit)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SQLITE_PATH", "/var/lib/triage/triage.db")
	t.Setenv("QUEUE_CAPACITY", "1024")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")
	t.Setenv("KAFKA_EVENT_TOPIC", "custom-events")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("SECTOR_GRID_DEGREES", "0.1")
	t.Setenv("SENSOR_WINDOW", "30m")
	t.Setenv("SENSOR_RADIUS_KM", "10")
	t.Setenv("SENSOR_QUERY_LIMIT", "250")
	t.Setenv("CANDIDATE_LIST_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/var/lib/triage/triage.db", cfg.SQLitePath)
	assert.Equal(t, 1024, cfg.QueueCapacity)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
	assert.Equal(t, "custom-events", cfg.KafkaEventTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.Equal(t, 0.1, cfg.SectorGridDegrees)
	assert.Equal(t, 30*time.Minute, cfg.SensorWindow)
	assert.Equal(t, 10.0, cfg.SensorRadiusKm)
	assert.Equal(t, 250, cfg.SensorQueryLimit)
	assert.Equal(t, 50, cfg.CandidateListLimit)
}

func TestLoad_FusionTuning(t *testing.T) {
	t.Setenv("FUSE_HAZARD_WEIGHT", "0.5")
	t.Setenv("FUSE_SENSOR_WEIGHT", "0.2")
	t.Setenv("SEVERITY_CRITICAL_THRESHOLD", "0.9")
	t.Setenv("SEVERITY_WARNING_THRESHOLD", "0.6")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.FusionWeights.Hazard)
	assert.Equal(t, 0.2, cfg.FusionWeights.Sensor)
	// Untouched weights keep their defaults.
	assert.Equal(t, domain.DefaultFusionWeights().Urgency, cfg.FusionWeights.Urgency)
	assert.Equal(t, 0.9, cfg.SeverityThresholds.Critical)
	assert.Equal(t, 0.6, cfg.SeverityThresholds.Warning)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidSensorWindow(t *testing.T) {
	t.Setenv("SENSOR_WINDOW", "-5m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SENSOR_WINDOW")
}

func TestLoad_InvalidMapboxTimeout(t *testing.T) {
	t.Setenv("MAPBOX_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TIMEOUT")
}

func TestLoad_ZeroSectorGrid(t *testing.T) {
	t.Setenv("SECTOR_GRID_DEGREES", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECTOR_GRID_DEGREES")
}

func TestLoad_ZeroSensorRadius(t *testing.T) {
	t.Setenv("SENSOR_RADIUS_KM", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SENSOR_RADIUS_KM")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("QUEUE_CAPACITY", "not-a-number")
	t.Setenv("MAPBOX_CACHE_SIZE", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.QueueCapacity)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}
