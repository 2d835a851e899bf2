package domain

import "time"

// SpanType classifies a tagged entity span.
type SpanType string

const (
	SpanHazard   SpanType = "hazard"
	SpanNeed     SpanType = "need"
	SpanResource SpanType = "resource"
	SpanVictim   SpanType = "victim"
	SpanLocation SpanType = "location"
)

// EntitySpan is one keyword match in the normalized text: its category, the
// matched value, character offsets, and the fixed confidence weight of the
// table that produced it.
type EntitySpan struct {
	Type       SpanType `json:"type"`
	Value      string   `json:"value"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence float64  `json:"confidence"`
}

// HazardGuess is one inferred hazard label with a bounded confidence.
type HazardGuess struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// UrgencyLevel buckets the urgency score for human display.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// GeoResult is the outcome of location resolution for one communication.
// Provenance records which tier produced the fix: "source" (raw coordinates
// on the report), "gazetteer", "entity", "pattern" (via geocoding), or
// "none" when nothing resolved.
type GeoResult struct {
	HasCoords  bool    `json:"has_coords"`
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
	Confidence float64 `json:"confidence"`
	Provenance string  `json:"provenance"`
	SectorID   string  `json:"sector_id,omitempty"`
}

// Extraction is the structured output derived from one processed
// Communication. Immutable after creation except for attaching the
// explanation once a candidate exists.
type Extraction struct {
	CommunicationID string        `json:"communication_id"`
	Language        string        `json:"language"`
	Tokens          []string      `json:"tokens"`
	Entities        []EntitySpan  `json:"entities"`
	Hazards         []HazardGuess `json:"hazards"`
	UrgencyLevel    UrgencyLevel  `json:"urgency_level"`
	UrgencyScore    float64       `json:"urgency_score"`
	Geo             GeoResult     `json:"geo"`
	SectorID        string        `json:"sector_id,omitempty"`
	Fingerprint     string        `json:"fingerprint"`
	Explanation     string        `json:"explanation,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}
