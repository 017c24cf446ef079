package answer

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"unicode"
)

const maxRawAnswerLength = 500

// Rules configure per-challenge answer normalization. Whitespace around
// the answer is always trimmed; everything else is opt-in.
type Rules struct {
	CaseFold     bool `json:"case_fold" dynamo:"case_fold"`
	StripSpaces  bool `json:"strip_spaces" dynamo:"strip_spaces"`
	StripDots    bool `json:"strip_dots" dynamo:"strip_dots"`
	StripHyphens bool `json:"strip_hyphens" dynamo:"strip_hyphens"`
	// AlnumOnly drops every rune that is not a letter, a digit, a dot
	// or a hyphen. Useful for domain and IP answers.
	AlnumOnly bool `json:"alnum_only" dynamo:"alnum_only"`
}

// Normalize applies the rule set to already-validated raw input.
func Normalize(raw string, rules Rules) string {
	norm := strings.TrimSpace(raw)

	if rules.CaseFold {
		norm = strings.ToLower(norm)
	}

	if rules.StripSpaces || rules.StripDots || rules.StripHyphens || rules.AlnumOnly {
		norm = strings.Map(func(r rune) rune {
			switch {
			case rules.StripSpaces && unicode.IsSpace(r):
				return -1
			case rules.StripDots && r == '.':
				return -1
			case rules.StripHyphens && r == '-':
				return -1
			case rules.AlnumOnly && !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-':
				return -1
			}
			return r
		}, norm)
	}

	return norm
}

// Hash returns the hex sha256 digest of normalized answer text. The
// digest is what challenges store; the plaintext answer is never kept.
func Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether raw input matches the stored digest under the
// given rules. Comparison is constant-time. The stored secret is never
// returned or logged.
func Verify(raw string, storedDigest string, rules Rules) (bool, error) {
	if err := validateRaw(raw); err != nil {
		return false, err
	}
	digest := Hash(Normalize(raw, rules))
	ok := subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
	return ok, nil
}

func validateRaw(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return newErrAnswerEmpty()
	}
	if len(raw) > maxRawAnswerLength {
		return newErrAnswerTooLong(maxRawAnswerLength)
	}
	return nil
}
