package domain

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Resolution tier confidences. Gazetteer hits outrank LOCATION entities,
// which outrank the "near X" pattern fallback.
const (
	gazetteerConfidence = 0.8
	entityConfidence    = 0.6
	patternConfidence   = 0.5
	sourceConfidence    = 0.95
)

// GeocodeFix is a coordinate fix returned by a geocoding provider.
type GeocodeFix struct {
	Found      bool
	Lat        float64
	Lng        float64
	Confidence float64
}

// Geocoder resolves a place name to coordinates. Network-backed and
// best-effort: failures are logged by the caller, never fatal.
type Geocoder interface {
	Lookup(ctx context.Context, name string) (GeocodeFix, error)
}

// LocationHint is a resolved place reference prior to geocoding: a name,
// optional coordinates (when the gazetteer knows the place), a confidence,
// and the tier that produced it.
type LocationHint struct {
	Name       string
	HasCoords  bool
	Lat        float64
	Lng        float64
	Confidence float64
	Tier       string // "gazetteer", "entity", or "pattern"
}

// gazetteer is the small fixed place list checked before any external
// lookup. Entries carry coordinates so matches resolve without the network.
// Ordered so ties resolve deterministically.
var gazetteer = []struct {
	name     string
	lat, lng float64
}{
	{"riverbend", 10.4806, -66.9036},
	{"north market", 10.5061, -66.9146},
	{"old bridge", 10.4722, -66.8850},
	{"central plaza", 10.4910, -66.9020},
	{"mill district", 10.4650, -66.9210},
	{"harbor", 10.4580, -66.8790},
	{"east terrace", 10.4995, -66.8705},
	{"pine ridge", 10.5230, -66.9330},
	{"south crossing", 10.4410, -66.9080},
}

// nearPatternRe captures the words following a location indicator, e.g.
// "near the old depot" → "the old depot".
var nearPatternRe = regexp.MustCompile(`\b(?:near|at|beside|close to|around)\s+([a-z][a-z0-9 ]{2,40})`)

// ResolveHint finds a place reference in normalized text using the
// priority-ordered tiers: gazetteer substring match, LOCATION-typed entity
// context, "near X" pattern. Returns nil when nothing matches.
func ResolveHint(text string, entities []EntitySpan) *LocationHint {
	for _, place := range gazetteer {
		if strings.Contains(text, place.name) {
			return &LocationHint{
				Name:       place.name,
				HasCoords:  true,
				Lat:        place.lat,
				Lng:        place.lng,
				Confidence: gazetteerConfidence,
				Tier:       "gazetteer",
			}
		}
	}

	// A location-indicator entity marks the phrase that follows it as a
	// probable place name.
	for _, span := range entities {
		if span.Type != SpanLocation {
			continue
		}
		rest := strings.TrimSpace(text[span.End:])
		if name := leadingPlaceName(rest); name != "" {
			return &LocationHint{
				Name:       name,
				Confidence: entityConfidence,
				Tier:       "entity",
			}
		}
	}

	if m := nearPatternRe.FindStringSubmatch(text); m != nil {
		return &LocationHint{
			Name:       strings.TrimSpace(m[1]),
			Confidence: patternConfidence,
			Tier:       "pattern",
		}
	}

	return nil
}

// leadingPlaceName takes up to three leading words as a place-name guess,
// stopping at punctuation.
func leadingPlaceName(text string) string {
	if i := strings.IndexAny(text, ".,!?"); i >= 0 {
		text = text[:i]
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// ResolveGeo produces the final geo fix for a communication. Raw coordinates
// on the report win outright with provenance "source". Otherwise the hint's
// own coordinates are used when present, or an external geocode lookup is
// attempted for its name; lookup failures degrade to "no geo". When no
// coordinates resolve, an already-known sector id on the communication seeds
// the result.
func ResolveGeo(ctx context.Context, comm Communication, hint *LocationHint, geocoder Geocoder, grid float64, logger *slog.Logger) GeoResult {
	if comm.HasCoords {
		return GeoResult{
			HasCoords:  true,
			Lat:        comm.Lat,
			Lng:        comm.Lng,
			Confidence: sourceConfidence,
			Provenance: "source",
			SectorID:   Sectorize(comm.Lat, comm.Lng, grid),
		}
	}

	if hint != nil {
		if hint.HasCoords {
			return GeoResult{
				HasCoords:  true,
				Lat:        hint.Lat,
				Lng:        hint.Lng,
				Confidence: hint.Confidence,
				Provenance: hint.Tier,
				SectorID:   Sectorize(hint.Lat, hint.Lng, grid),
			}
		}
		if geocoder != nil {
			fix, err := geocoder.Lookup(ctx, hint.Name)
			switch {
			case err != nil:
				logger.Warn("geocode lookup failed",
					"communication_id", comm.ID,
					"place", hint.Name,
					"error", err,
				)
			case fix.Found:
				conf := hint.Confidence
				if fix.Confidence > 0 && fix.Confidence < conf {
					conf = fix.Confidence
				}
				return GeoResult{
					HasCoords:  true,
					Lat:        fix.Lat,
					Lng:        fix.Lng,
					Confidence: conf,
					Provenance: hint.Tier,
					SectorID:   Sectorize(fix.Lat, fix.Lng, grid),
				}
			}
		}
	}

	// No coordinates resolved. A sector already known on the communication
	// still lets the aggregator bucket the report.
	return GeoResult{Provenance: "none", SectorID: comm.SectorID}
}
