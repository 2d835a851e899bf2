package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Correlation defaults. Radius and window are heuristics carried over from
// operational tuning; both are configurable.
const (
	DefaultSensorWindow     = 20 * time.Minute
	DefaultSensorRadiusKm   = 5.0
	DefaultSensorQueryLimit = 500
)

// SensorMatch is one telemetry reading that corroborates a hazard near a
// centroid, annotated with its rule label, contribution score, and computed
// distance.
type SensorMatch struct {
	ReadingID  string    `json:"reading_id"`
	SensorID   string    `json:"sensor_id"`
	Hazard     string    `json:"hazard"`
	Label      string    `json:"label"`
	Score      float64   `json:"score"`
	Timestamp  time.Time `json:"timestamp"`
	DistanceKm float64   `json:"distance_km"`
}

// sensorRule maps a thresholded sensor reading to a candidate hazard.
// above=true fires when value > threshold, otherwise when value < threshold.
type sensorRule struct {
	sensorType string
	above      bool
	threshold  float64
	hazard     string
	label      string
	score      float64
}

var sensorRules = []sensorRule{
	{sensorType: "pm25", above: true, threshold: 150, hazard: HazardFire, label: "elevated particulate matter", score: 0.5},
	{sensorType: "gas", above: true, threshold: 50, hazard: HazardFire, label: "elevated combustible gas", score: 0.45},
	{sensorType: "gas", above: true, threshold: 120, hazard: HazardGasLeak, label: "combustible gas spike", score: 0.55},
	{sensorType: "water_level", above: false, threshold: 0.5, hazard: HazardFlood, label: "river gauge low clearance", score: 0.5},
	{sensorType: "temperature", above: true, threshold: 40, hazard: HazardHeatwave, label: "high ambient temperature", score: 0.45},
	{sensorType: "humidity", above: false, threshold: 15, hazard: HazardHeatwave, label: "very low humidity", score: 0.35},
	{sensorType: "seismic", above: true, threshold: 3.0, hazard: HazardEarthquake, label: "seismic activity", score: 0.6},
}

func (r sensorRule) matches(reading SensorReading) bool {
	if reading.Type != r.sensorType {
		return false
	}
	if r.above {
		return reading.Value > r.threshold
	}
	return reading.Value < r.threshold
}

// Correlator joins a report centroid against the telemetry stream over a
// rolling time window and a maximum great-circle distance.
type Correlator struct {
	source   TelemetrySource
	window   time.Duration
	radiusKm float64
	limit    int
	logger   *slog.Logger
}

// NewCorrelator creates a Correlator over the given telemetry source.
func NewCorrelator(source TelemetrySource, window time.Duration, radiusKm float64, limit int, logger *slog.Logger) *Correlator {
	return &Correlator{
		source:   source,
		window:   window,
		radiusKm: radiusKm,
		limit:    limit,
		logger:   logger,
	}
}

// Correlate returns the ordered sensor matches for a centroid. Sensor
// corroboration is best-effort: a failing telemetry query is logged and
// yields an empty match list, never an error.
func (c *Correlator) Correlate(ctx context.Context, lat, lng float64) []SensorMatch {
	now := clock.Now().UTC()
	readings, err := c.source.FindReadings(ctx, now.Add(-c.window), now, c.limit)
	if err != nil {
		c.logger.Warn("telemetry query failed, continuing without sensor corroboration", "error", err)
		return nil
	}

	var matches []SensorMatch
	for _, reading := range readings {
		if !reading.HasLocation {
			continue
		}
		dist := HaversineKm(lat, lng, reading.Lat, reading.Lng)
		if dist > c.radiusKm {
			continue
		}
		for _, rule := range sensorRules {
			if !rule.matches(reading) {
				continue
			}
			matches = append(matches, SensorMatch{
				ReadingID:  fmt.Sprintf("sensor-%d", reading.ID),
				SensorID:   reading.SensorID,
				Hazard:     rule.hazard,
				Label:      rule.label,
				Score:      rule.score,
				Timestamp:  reading.Timestamp,
				DistanceKm: dist,
			})
		}
	}
	return matches
}

// HaversineKm computes the great-circle distance between two WGS-84
// coordinates in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
