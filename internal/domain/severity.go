package domain

import "fmt"

// FusionWeights are the relative contributions of each signal to the fused
// confidence. Heuristic constants with no documented derivation; kept
// configurable rather than hard-coded.
type FusionWeights struct {
	Hazard  float64
	Urgency float64
	Sensor  float64
	Geo     float64
}

// DefaultFusionWeights mirror the operational tuning: hazard 0.35,
// urgency 0.25, sensor 0.35, geo 0.05.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Hazard: 0.35, Urgency: 0.25, Sensor: 0.35, Geo: 0.05}
}

// SeverityThresholds are the confidence cut-offs for the severity tiers.
type SeverityThresholds struct {
	Critical float64
	Warning  float64
}

// DefaultSeverityThresholds returns CRITICAL ≥ 0.8, WARNING ≥ 0.55.
func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{Critical: 0.8, Warning: 0.55}
}

// Assessment is the output of severity fusion for one communication.
type Assessment struct {
	Severity    Severity
	Confidence  float64
	Explanation string
}

// FuseSeverity combines hazard confidence, urgency, sensor corroboration,
// and geo confidence into a single confidence value and a severity tier.
// Two or more independent sensor matches force CRITICAL regardless of
// confidence. Pure: identical inputs always yield identical output, which
// keeps re-runs on the same communication idempotent.
func FuseSeverity(hazard HazardGuess, urgency float64, matches []SensorMatch, geo GeoResult, weights FusionWeights, thresholds SeverityThresholds) Assessment {
	sensorScore := 0.0
	for _, m := range matches {
		sensorScore += m.Score
	}
	sensorScore = clamp01(sensorScore)

	confidence := clamp01(
		weights.Hazard*hazard.Confidence +
			weights.Urgency*urgency +
			weights.Sensor*sensorScore +
			weights.Geo*geo.Confidence,
	)

	severity := SeverityInfo
	switch {
	case len(matches) >= 2 || confidence >= thresholds.Critical:
		severity = SeverityCritical
	case confidence >= thresholds.Warning:
		severity = SeverityWarning
	}

	return Assessment{
		Severity:    severity,
		Confidence:  confidence,
		Explanation: renderExplanation(hazard, matches, geo, confidence),
	}
}

// renderExplanation summarizes which hazard was inferred, how many sensor
// readings corroborate it, and where the location came from.
func renderExplanation(hazard HazardGuess, matches []SensorMatch, geo GeoResult, confidence float64) string {
	location := "location unresolved"
	if geo.SectorID != "" {
		location = fmt.Sprintf("sector %s via %s", geo.SectorID, geo.Provenance)
	}
	return fmt.Sprintf("%s (keyword confidence %.2f), %d corroborating sensor reading(s), %s, fused confidence %.2f",
		hazard.Label, hazard.Confidence, len(matches), location, confidence)
}
