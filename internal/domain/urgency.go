package domain

// Urgency weights: presence of each entity category adds its fixed weight.
// All three present sum to exactly 1.0.
const (
	urgencyHazardWeight = 0.4
	urgencyNeedWeight   = 0.3
	urgencyVictimWeight = 0.3
)

// ScoreUrgency computes an entity-driven urgency scalar in [0,1]. Pure and
// deterministic: the same entity set always yields the same score.
func ScoreUrgency(entities []EntitySpan) float64 {
	var hazard, need, victim bool
	for _, e := range entities {
		switch e.Type {
		case SpanHazard:
			hazard = true
		case SpanNeed:
			need = true
		case SpanVictim:
			victim = true
		}
	}

	score := 0.0
	if hazard {
		score += urgencyHazardWeight
	}
	if need {
		score += urgencyNeedWeight
	}
	if victim {
		score += urgencyVictimWeight
	}
	return clamp01(score)
}

// UrgencyLevelFor buckets a score for display.
func UrgencyLevelFor(score float64) UrgencyLevel {
	switch {
	case score >= 0.7:
		return UrgencyHigh
	case score >= 0.4:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
