package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_NormalizesCaseAndWhitespace(t *testing.T) {
	a := Fingerprint("Drupal Developer", "Acme Corp", "Remote")
	b := Fingerprint("  drupal   developer ", "ACME CORP", "remote ")
	assert.Equal(t, a, b)
}

func TestFingerprint_DistinctInputsDiffer(t *testing.T) {
	base := Fingerprint("Drupal Developer", "Acme", "Remote")
	assert.NotEqual(t, base, Fingerprint("Drupal Developer", "Acme", "Berlin"))
	assert.NotEqual(t, base, Fingerprint("Drupal Developer", "Other Co", "Remote"))
	assert.NotEqual(t, base, Fingerprint("PHP Developer", "Acme", "Remote"))
}

func TestFingerprint_FieldsDoNotBleed(t *testing.T) {
	// the separator keeps ("ab","c") and ("a","bc") apart
	assert.NotEqual(t,
		Fingerprint("ab", "c", ""),
		Fingerprint("a", "bc", ""),
	)
}

func TestFingerprint_Shape(t *testing.T) {
	fp := Fingerprint("Dev", "Acme", "Remote")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint("Dev", "Acme", "Remote"))
}
