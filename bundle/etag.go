package bundle

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// ETag computes the strong, content-addressed ETag for a composed
// bundle value: SHA-256 over the canonical JSON encoding, first 64
// bits, base64url-encoded, unprefixed (the strong strategy chosen in
// SPEC_FULL.md over the cheap updatedAtISO-based alternative).
//
// Stable across identical inputs; changes whenever any field included
// in the projection changes, since no field can change without the
// hash changing (§8 ETag determinism).
func ETag(value any) (string, error) {
	canonical, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return base64.RawURLEncoding.EncodeToString(sum[:8]), nil
}
