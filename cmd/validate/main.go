// Command validate performs integrity checks on a triage database: candidate
// uniqueness, evidence consistency, and decision bookkeeping. It reads
// through the actual store package, so the checks see exactly what the
// service would.
//
// Usage:
//
//	go run ./cmd/validate -db triage.db
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/alert-triage/internal/domain"
	"github.com/couchcryptid/alert-triage/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	dbPath := flag.String("db", "triage.db", "path to the sqlite database to check")
	flag.Parse()

	st, err := store.New(*dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	ctx := context.Background()
	var failures int

	for _, status := range []domain.CandidateStatus{
		domain.StatusPending, domain.StatusVerified, domain.StatusRejected,
	} {
		cands, err := st.ListCandidates(ctx, status, "", 10000)
		if err != nil {
			return fmt.Errorf("list %s candidates: %w", status, err)
		}
		fmt.Printf("%s: %d candidates\n", status, len(cands))
		failures += checkCandidates(status, cands)
	}

	if failures > 0 {
		return fmt.Errorf("%d integrity check(s) failed", failures)
	}
	fmt.Println("all checks passed")
	return nil
}

func checkCandidates(status domain.CandidateStatus, cands []domain.AlertCandidate) int {
	var failures int
	fail := func(format string, args ...any) {
		failures++
		fmt.Printf("  FAIL: "+format+"\n", args...)
	}

	pendingKeys := map[string]string{}
	for _, c := range cands {
		if status == domain.StatusPending {
			key := c.SectorID + "|" + c.Hazard
			if prev, dup := pendingKeys[key]; dup {
				fail("candidates %s and %s are both PENDING for (%s, %s)", prev, c.ID, c.SectorID, c.Hazard)
			}
			pendingKeys[key] = c.ID
		}

		if len(c.Evidence) == 0 {
			fail("candidate %s has no evidence", c.ID)
		}
		refs := map[string]bool{}
		for _, e := range c.Evidence {
			if refs[e.Ref] {
				fail("candidate %s has duplicate evidence ref %s", c.ID, e.Ref)
			}
			refs[e.Ref] = true
		}

		decided := status == domain.StatusVerified || status == domain.StatusRejected
		switch {
		case decided && c.VerifiedBy == "":
			fail("candidate %s is %s without a verifier", c.ID, status)
		case decided && c.VerifiedAt == nil:
			fail("candidate %s is %s without a decision timestamp", c.ID, status)
		case !decided && (c.VerifiedBy != "" || c.VerifiedAt != nil):
			fail("candidate %s is PENDING but carries decision fields", c.ID)
		}

		if c.Confidence < 0 || c.Confidence > 1 {
			fail("candidate %s confidence %.3f outside [0,1]", c.ID, c.Confidence)
		}
		if c.UpdatedAt.Before(c.CreatedAt) {
			fail("candidate %s updated_at precedes created_at", c.ID)
		}
	}
	return failures
}
