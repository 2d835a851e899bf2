// Command seed populates a triage database with deterministic sensor
// readings and optionally writes sample report payloads for exercising the
// intake API. It uses the actual store and domain packages so the seeded
// rows match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/seed -db triage.db -reports-out data/sample_reports.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/alert-triage/internal/domain"
	"github.com/couchcryptid/alert-triage/internal/store"
)

var baseTime = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

// site is a seeded sensor location.
type site struct {
	name     string
	lat, lng float64
}

var sites = []site{
	{"riverbend", 10.4806, -66.9036},
	{"north market", 10.5061, -66.9146},
	{"old bridge", 10.4722, -66.8850},
	{"harbor", 10.4580, -66.8790},
	{"pine ridge", 10.5230, -66.9330},
}

// readingDef describes one sensor type to seed per site: a baseline value,
// a jitter range, and how many of the most recent readings spike above the
// correlation threshold.
type readingDef struct {
	sensorType string
	baseline   float64
	jitter     float64
	spike      float64
	spikeCount int
}

var defs = []readingDef{
	{sensorType: "pm25", baseline: 40, jitter: 20, spike: 180, spikeCount: 2},
	{sensorType: "gas", baseline: 10, jitter: 8, spike: 60, spikeCount: 1},
	{sensorType: "water_level", baseline: 1.8, jitter: 0.4, spike: 0.3, spikeCount: 1},
	{sensorType: "temperature", baseline: 28, jitter: 4, spike: 43, spikeCount: 1},
	{sensorType: "seismic", baseline: 0.4, jitter: 0.3, spike: 3.6, spikeCount: 1},
}

const readingsPerSensor = 12

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "triage.db", "path to the sqlite database to seed")
	reportsOut := flag.String("reports-out", "", "optional output path for sample report payloads")
	flag.Parse()

	// Freeze the clock so repeated runs produce identical timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	st, err := store.New(*dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	total, err := seedReadings(st)
	if err != nil {
		return err
	}
	log.Printf("seeded %d readings across %d sites", total, len(sites))

	if *reportsOut != "" {
		if err := writeSampleReports(*reportsOut); err != nil {
			return fmt.Errorf("writing sample reports: %w", err)
		}
		log.Printf("wrote sample reports: %s", *reportsOut)
	}
	return nil
}

// seedReadings inserts readingsPerSensor rows per (site, sensor type),
// spaced two minutes apart ending at the frozen now, with spikes on the
// newest rows so fresh reports correlate.
func seedReadings(st *store.Store) (int, error) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic fixture data

	var total int
	for _, s := range sites {
		for _, d := range defs {
			for i := 0; i < readingsPerSensor; i++ {
				age := time.Duration(readingsPerSensor-1-i) * 2 * time.Minute
				value := d.baseline + (rng.Float64()*2-1)*d.jitter
				if i >= readingsPerSensor-d.spikeCount {
					value = d.spike
				}
				r := domain.SensorReading{
					SensorID:    fmt.Sprintf("%s-%s", sensorSlug(s.name), d.sensorType),
					Type:        d.sensorType,
					Value:       value,
					HasLocation: true,
					Lat:         s.lat,
					Lng:         s.lng,
					Timestamp:   baseTime.Add(-age),
				}
				if _, err := st.InsertReading(ctx, r); err != nil {
					return total, fmt.Errorf("insert reading for %s: %w", r.SensorID, err)
				}
				total++
			}
		}
	}
	return total, nil
}

func sensorSlug(name string) string {
	slug := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ' ' {
			c = '-'
		}
		slug = append(slug, c)
	}
	return string(slug)
}

func writeSampleReports(path string) error {
	lat, lng := 10.4806, -66.9036
	payloads := []domain.ReportPayload{
		{Source: "sms", Text: "Fire near riverbend, people trapped, need help"},
		{Source: "radio", Text: "Water rising fast at old bridge, street flooded"},
		{Source: "social", Text: "Strong smell of gas around north market #emergency"},
		{Source: "field", Text: "Ground shaking near pine ridge, walls cracked", Lat: &lat, Lng: &lng},
		{Source: "web", Text: "Extreme heat at the harbor, elderly residents need water"},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
