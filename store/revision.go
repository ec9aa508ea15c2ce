package store

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NextRevision returns a fresh revision following prev.
// Revisions look like "<generation>-<32 hex chars>"; the generation starts at 1.
func NextRevision(prev string) string {
	id := uuid.New()
	return strconv.Itoa(RevisionGeneration(prev)+1) + "-" + hex.EncodeToString(id[:])
}

// RevisionGeneration returns the generation number of rev, or 0 if rev is
// empty or malformed.
func RevisionGeneration(rev string) int {
	gen, _, ok := strings.Cut(rev, "-")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(gen)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
