package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint hashes the normalized (title, company, location) triple. The
// URL and description stay out of it on purpose: the same posting mirrored
// on two boards collapses to one fingerprint.
func Fingerprint(title, company, location string) string {
	h := sha256.New()
	h.Write([]byte(normalize(title)))
	h.Write([]byte{'|'})
	h.Write([]byte(normalize(company)))
	h.Write([]byte{'|'})
	h.Write([]byte(normalize(location)))
	return hex.EncodeToString(h.Sum(nil))
}

// normalize lower-cases and collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
