// Package domain models community situational reports and their correlation
// against environmental sensor telemetry.
//
// # Data Flow
//
// A Communication is a raw free-text report from a community channel (SMS,
// radio relay, social media, web form, field team). The pipeline derives one
// Extraction per processed Communication through a fixed stage order:
//
//	normalize → extract entities/hazards → resolve location → score urgency
//	→ fingerprint → correlate sensors → fuse severity → aggregate candidate
//
// Every stage in this package is a pure function over its inputs; I/O
// (geocoding, telemetry queries, persistence) happens behind the Geocoder
// and TelemetrySource interfaces and is always best-effort.
//
// # Extraction Conventions
//
// Entity and hazard extraction is deliberately rule/keyword based, not a
// trainable model. Keyword tables map whole-word matches to typed spans with
// fixed confidence weights; hazard inference aggregates the hits per label
// and always yields at least one guess (OTHER at low confidence when nothing
// matches). All confidences are bounded to [0,1].
//
// # Sectors
//
// Coordinates are quantized into coarse grid buckets ("sectors") of a fixed
// size in degrees. Sector ids encode the quantized row and column
// ("s<row>_<col>") and invert to the cell centroid, so nearby signals group
// without storing geometry. See [Sectorize] and [SectorCentroid].
//
// # Severity
//
// FuseSeverity combines hazard confidence, urgency, sensor corroboration,
// and geo confidence with fixed weights into one confidence value, then
// derives a tier: two or more independent sensor matches, or confidence at
// or above the critical threshold, mean CRITICAL; the warning threshold
// means WARNING; anything else INFO. The fusion is pure, which makes
// re-processing the same Communication idempotent.
//
// # Candidates
//
// An AlertCandidate aggregates evidence for one (sector, hazard) pair. At
// most one PENDING candidate exists per pair; repeated correlation runs
// merge evidence into it (deduplicated by reference id) until an external
// verifier decides it. VERIFIED and REJECTED are terminal.
package domain
