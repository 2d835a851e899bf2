package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// hazardOnlyWeights isolates the hazard term so threshold boundaries can be
// hit exactly.
var hazardOnlyWeights = FusionWeights{Hazard: 1}

func TestFuseSeverity_Thresholds(t *testing.T) {
	thresholds := DefaultSeverityThresholds()
	tests := []struct {
		name string
		conf float64
		want Severity
	}{
		{"critical boundary", 0.8, SeverityCritical},
		{"just below critical", 0.79, SeverityWarning},
		{"warning boundary", 0.55, SeverityWarning},
		{"just below warning", 0.54, SeverityInfo},
		{"zero", 0.0, SeverityInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FuseSeverity(HazardGuess{Label: HazardFire, Confidence: tt.conf}, 0, nil, GeoResult{}, hazardOnlyWeights, thresholds)
			assert.Equal(t, tt.want, a.Severity)
			assert.InDelta(t, tt.conf, a.Confidence, 1e-9)
		})
	}
}

func TestFuseSeverity_TwoSensorMatchesForceCritical(t *testing.T) {
	matches := []SensorMatch{
		{ReadingID: "sensor-1", Score: 0.1},
		{ReadingID: "sensor-2", Score: 0.1},
	}
	a := FuseSeverity(HazardGuess{Label: HazardFire, Confidence: 0.1}, 0, matches, GeoResult{}, DefaultFusionWeights(), DefaultSeverityThresholds())

	assert.Equal(t, SeverityCritical, a.Severity)
	assert.Less(t, a.Confidence, 0.8, "the override fires below the confidence threshold")
}

func TestFuseSeverity_WeightedCombination(t *testing.T) {
	geo := GeoResult{Confidence: 0.8, SectorID: "s209_-1339", Provenance: "gazetteer"}
	matches := []SensorMatch{{ReadingID: "sensor-1", Score: 0.5}}

	a := FuseSeverity(HazardGuess{Label: HazardFire, Confidence: 0.75}, 1.0, matches, geo, DefaultFusionWeights(), DefaultSeverityThresholds())

	// 0.35*0.75 + 0.25*1.0 + 0.35*0.5 + 0.05*0.8 = 0.7275
	assert.InDelta(t, 0.7275, a.Confidence, 1e-9)
	assert.Equal(t, SeverityWarning, a.Severity)
}

func TestFuseSeverity_SensorScoreClamped(t *testing.T) {
	matches := []SensorMatch{
		{ReadingID: "sensor-1", Score: 0.6},
		{ReadingID: "sensor-2", Score: 0.6},
		{ReadingID: "sensor-3", Score: 0.6},
	}
	weights := FusionWeights{Sensor: 1}

	a := FuseSeverity(HazardGuess{Label: HazardFire}, 0, matches, GeoResult{}, weights, DefaultSeverityThresholds())
	assert.InDelta(t, 1.0, a.Confidence, 1e-9)
}

func TestFuseSeverity_Explanation(t *testing.T) {
	geo := GeoResult{SectorID: "s209_-1339", Provenance: "gazetteer"}
	a := FuseSeverity(HazardGuess{Label: HazardFlood, Confidence: 0.8}, 0.7, nil, geo, DefaultFusionWeights(), DefaultSeverityThresholds())

	assert.Contains(t, a.Explanation, "FLOOD")
	assert.Contains(t, a.Explanation, "0 corroborating sensor reading(s)")
	assert.Contains(t, a.Explanation, "sector s209_-1339 via gazetteer")
}

func TestFuseSeverity_Deterministic(t *testing.T) {
	geo := GeoResult{Confidence: 0.5, SectorID: "s1_1", Provenance: "entity"}
	h := HazardGuess{Label: HazardGasLeak, Confidence: 0.7}

	a1 := FuseSeverity(h, 0.4, nil, geo, DefaultFusionWeights(), DefaultSeverityThresholds())
	a2 := FuseSeverity(h, 0.4, nil, geo, DefaultFusionWeights(), DefaultSeverityThresholds())
	assert.Equal(t, a1, a2)
}
