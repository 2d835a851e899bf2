package domain

import "time"

// CandidateStatus is the verification lifecycle state of an AlertCandidate.
// PENDING transitions to VERIFIED or REJECTED, both terminal.
type CandidateStatus string

const (
	StatusPending  CandidateStatus = "PENDING"
	StatusVerified CandidateStatus = "VERIFIED"
	StatusRejected CandidateStatus = "REJECTED"
)

// Severity is the tiered severity of a candidate.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Decision is an external verifier's ruling on a pending candidate.
type Decision string

const (
	DecisionVerify Decision = "VERIFY"
	DecisionReject Decision = "REJECT"
)

// EvidenceKind distinguishes community-report evidence from sensor evidence.
type EvidenceKind string

const (
	EvidenceComm   EvidenceKind = "COMM"
	EvidenceSensor EvidenceKind = "SENSOR"
)

// Evidence is one provenance record backing a candidate: the kind of source,
// a reference id, a human label, and the numeric contribution of that source.
type Evidence struct {
	Kind      EvidenceKind `json:"kind"`
	Ref       string       `json:"ref"`
	Label     string       `json:"label"`
	Score     float64      `json:"score"`
	Timestamp time.Time    `json:"timestamp"`
}

// AlertCandidate is the aggregated, evidence-backed hazard hypothesis
// surfaced for human verification. At most one PENDING candidate exists per
// (sector id, hazard label) pair; new matching evidence merges into it.
type AlertCandidate struct {
	ID          string          `json:"id"`
	SectorID    string          `json:"sector_id"`
	Lat         float64         `json:"lat"`
	Lng         float64         `json:"lng"`
	Hazard      string          `json:"hazard"`
	Severity    Severity        `json:"severity"`
	Confidence  float64         `json:"confidence"`
	Evidence    []Evidence      `json:"evidence"`
	Status      CandidateStatus `json:"status"`
	Explanation string          `json:"explanation,omitempty"`
	VerifiedBy  string          `json:"verified_by,omitempty"`
	VerifiedAt  *time.Time      `json:"verified_at,omitempty"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MergeEvidence appends entries from incoming whose reference id is not
// already present. Evidence accumulates monotonically; a reference id never
// appears twice.
func MergeEvidence(existing, incoming []Evidence) []Evidence {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Ref] = true
	}
	merged := existing
	for _, e := range incoming {
		if seen[e.Ref] {
			continue
		}
		seen[e.Ref] = true
		merged = append(merged, e)
	}
	return merged
}
