package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintTokens is the stable truncation length for near-duplicate
// fingerprints: reports that agree on their first 20 normalized tokens are
// considered near-duplicates.
const fingerprintTokens = 20

// Fingerprint hashes the first fingerprintTokens normalized tokens into a
// short one-way digest. Informational: stored on the Extraction for
// clustering and analytics, it does not suppress candidate creation.
func Fingerprint(tokens []string) string {
	if len(tokens) > fingerprintTokens {
		tokens = tokens[:fingerprintTokens]
	}
	sum := sha256.Sum256([]byte(strings.Join(tokens, " ")))
	return hex.EncodeToString(sum[:8])
}
