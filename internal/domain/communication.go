package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Source identifies the channel a community report arrived on.
type Source string

const (
	SourceSMS    Source = "sms"
	SourceRadio  Source = "radio"
	SourceSocial Source = "social"
	SourceWeb    Source = "web"
	SourceField  Source = "field"
)

var validSources = map[Source]bool{
	SourceSMS:    true,
	SourceRadio:  true,
	SourceSocial: true,
	SourceWeb:    true,
	SourceField:  true,
}

const (
	minReportLength = 5
	maxReportLength = 1000
)

// ReportPayload is the validated ingestion-boundary input: one free-text
// situational report from a community channel.
type ReportPayload struct {
	Source     string   `json:"source"`
	Text       string   `json:"text"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	Handle     string   `json:"handle,omitempty"`
	ExternalID string   `json:"external_id,omitempty"`
}

// ValidationError marks a payload rejection, distinguishing caller mistakes
// from internal failures at the API boundary.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) ValidationError {
	return ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Validate rejects malformed payloads before they are persisted or enqueued.
func (p ReportPayload) Validate() error {
	n := utf8.RuneCountInString(p.Text)
	if n < minReportLength {
		return validationErrorf("text too short: %d chars, minimum %d", n, minReportLength)
	}
	if n > maxReportLength {
		return validationErrorf("text too long: %d chars, maximum %d", n, maxReportLength)
	}
	if !validSources[Source(p.Source)] {
		return validationErrorf("unknown source %q", p.Source)
	}
	if (p.Lat == nil) != (p.Lng == nil) {
		return validationErrorf("lat and lng must be provided together")
	}
	return nil
}

// Communication is a raw inbound report plus its lifecycle and provenance
// fields. Created once by the ingestion boundary, mutated once by the
// pipeline to record derived fields and mark completion.
type Communication struct {
	ID         string    `json:"id"`
	Source     Source    `json:"source"`
	Text       string    `json:"text"`
	HasCoords  bool      `json:"has_coords"`
	Lat        float64   `json:"lat,omitempty"`
	Lng        float64   `json:"lng,omitempty"`
	Handle     string    `json:"handle,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Processed  bool      `json:"processed"`

	// Derived fields, populated by the pipeline.
	Language    string `json:"language,omitempty"`
	Redacted    string `json:"redacted,omitempty"`
	SectorID    string `json:"sector_id,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

// NewCommunication builds an unprocessed Communication from a validated payload.
func NewCommunication(id string, p ReportPayload) Communication {
	c := Communication{
		ID:         id,
		Source:     Source(p.Source),
		Text:       p.Text,
		Handle:     p.Handle,
		ExternalID: p.ExternalID,
		ReceivedAt: clock.Now().UTC(),
	}
	if p.Lat != nil && p.Lng != nil {
		c.HasCoords = true
		c.Lat = *p.Lat
		c.Lng = *p.Lng
	}
	return c
}
