package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreUrgency(t *testing.T) {
	tests := []struct {
		name     string
		entities []EntitySpan
		want     float64
	}{
		{
			name:     "no entities",
			entities: nil,
			want:     0.0,
		},
		{
			name:     "hazard only",
			entities: []EntitySpan{{Type: SpanHazard}},
			want:     0.4,
		},
		{
			name:     "hazard and need",
			entities: []EntitySpan{{Type: SpanHazard}, {Type: SpanNeed}},
			want:     0.7,
		},
		{
			name: "all three sum to one",
			entities: []EntitySpan{
				{Type: SpanHazard}, {Type: SpanNeed}, {Type: SpanVictim},
			},
			want: 1.0,
		},
		{
			name: "duplicates count once",
			entities: []EntitySpan{
				{Type: SpanHazard}, {Type: SpanHazard}, {Type: SpanHazard},
			},
			want: 0.4,
		},
		{
			name:     "resource and location ignored",
			entities: []EntitySpan{{Type: SpanResource}, {Type: SpanLocation}},
			want:     0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreUrgency(tt.entities), 1e-9)
		})
	}
}

func TestUrgencyLevelFor(t *testing.T) {
	assert.Equal(t, UrgencyLow, UrgencyLevelFor(0.0))
	assert.Equal(t, UrgencyLow, UrgencyLevelFor(0.39))
	assert.Equal(t, UrgencyMedium, UrgencyLevelFor(0.4))
	assert.Equal(t, UrgencyMedium, UrgencyLevelFor(0.69))
	assert.Equal(t, UrgencyHigh, UrgencyLevelFor(0.7))
	assert.Equal(t, UrgencyHigh, UrgencyLevelFor(1.0))
}
