// Package ids provides the short, human-readable identifier helpers used
// by the Packet & Link layer: a short hex suffix derived from a UUID,
// cheap to log and compare, not a security primitive.
package ids

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ShortHash derives an 8-character hex disambiguator from the given fields
// plus a timestamp supplied by the caller. The caller owns the clock so
// this package never touches wall time directly; the hash is not a
// security primitive, only a log disambiguator.
func ShortHash(fields ...string) string {
	h := sha1.New()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:8]
}

// NewShortUUID creates an 8-character hex string from a fresh UUID, for
// identifiers that need global uniqueness but not content-derivation (e.g.
// one-off correlation suffixes in log lines).
func NewShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

// LabeledID formats a human-readable id of the form "{label}-{shortUUID}".
func LabeledID(label string) string {
	return fmt.Sprintf("%s-%s", label, NewShortUUID())
}
