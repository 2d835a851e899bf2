package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPayload_Validate(t *testing.T) {
	lat, lng := 10.48, -66.90
	tests := []struct {
		name    string
		payload ReportPayload
		wantErr string
	}{
		{
			name:    "valid",
			payload: ReportPayload{Source: "sms", Text: "Fire near riverbend"},
		},
		{
			name:    "valid with coordinates",
			payload: ReportPayload{Source: "field", Text: "Ground shaking here", Lat: &lat, Lng: &lng},
		},
		{
			name:    "too short",
			payload: ReportPayload{Source: "sms", Text: "hey"},
			wantErr: "too short",
		},
		{
			name:    "too long",
			payload: ReportPayload{Source: "sms", Text: strings.Repeat("a", 1001)},
			wantErr: "too long",
		},
		{
			name:    "unknown source",
			payload: ReportPayload{Source: "carrier-pigeon", Text: "Fire near riverbend"},
			wantErr: "unknown source",
		},
		{
			name:    "lat without lng",
			payload: ReportPayload{Source: "sms", Text: "Fire near riverbend", Lat: &lat},
			wantErr: "together",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorAs(t, err, &ValidationError{})
		})
	}
}

func TestNewCommunication(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	lat, lng := 10.48, -66.90
	comm := NewCommunication("comm-1", ReportPayload{
		Source: "field",
		Text:   "Ground shaking near pine ridge",
		Lat:    &lat,
		Lng:    &lng,
		Handle: "unit-7",
	})

	assert.Equal(t, "comm-1", comm.ID)
	assert.Equal(t, SourceField, comm.Source)
	assert.True(t, comm.HasCoords)
	assert.Equal(t, 10.48, comm.Lat)
	assert.Equal(t, now, comm.ReceivedAt)
	assert.False(t, comm.Processed)
}

func TestNewCommunication_NoCoords(t *testing.T) {
	comm := NewCommunication("comm-2", ReportPayload{Source: "sms", Text: "Fire near riverbend"})
	assert.False(t, comm.HasCoords)
	assert.Zero(t, comm.Lat)
}
