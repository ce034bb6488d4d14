// Package content derives stable fingerprints from question content.
//
// The same question text tends to reappear verbatim across many historical
// exam sittings. The fingerprint recognizes those recurrences regardless of
// option order or superficial punctuation/case differences, and doubles as
// the cache key for generated explanations.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"
)

// FingerprintLen is the hex width of a fingerprint. Kept at 16 for
// compatibility with previously stored keys; widening it would orphan every
// stored explanation.
const FingerprintLen = 16

const delimiter = "|"

// Normalize lowercases s, strips punctuation and collapses whitespace runs
// to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped entirely; "¿Qué es?" and "qué es" normalize together.
			// Accented letters survive: diacritics are content.
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fingerprint returns the content fingerprint for a prompt and its option
// texts. Option order does not matter: options are normalized and sorted
// before hashing. The function is pure and total; empty inputs still hash
// deterministically.
func Fingerprint(prompt string, options []string) string {
	norm := make([]string, 0, len(options))
	for _, opt := range options {
		if n := Normalize(opt); n != "" {
			norm = append(norm, n)
		}
	}
	sort.Strings(norm)

	payload := Normalize(prompt) + delimiter + strings.Join(norm, delimiter)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}
