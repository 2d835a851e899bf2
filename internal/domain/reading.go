package domain

import (
	"context"
	"time"
)

// SensorReading is one telemetry row from the environmental sensor stream.
// Readings are read-only to this service: the ingestion subscriber that
// produces them lives elsewhere.
type SensorReading struct {
	ID          int64     `json:"id"`
	SensorID    string    `json:"sensor_id"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	HasLocation bool      `json:"has_location"`
	Lat         float64   `json:"lat,omitempty"`
	Lng         float64   `json:"lng,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TelemetrySource queries the sensor stream over a time window.
type TelemetrySource interface {
	FindReadings(ctx context.Context, from, to time.Time, limit int) ([]SensorReading, error)
}
