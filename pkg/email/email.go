package email

import (
	"strings"
	"unicode"
)

// SplitDisplayName splits a display name into first and last name fields:
// the first token becomes the first name, the remaining tokens joined by a
// space become the last name. Both are empty when the display name is empty,
// and the last name is empty for single-token names.
func SplitDisplayName(displayName string) (string, string) {
	tokens := strings.Fields(displayName)
	if len(tokens) == 0 {
		return "", ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

// DeriveNameFromEmail guesses first and last name from the local part of an
// email address. Used when no display name is on record.
func DeriveNameFromEmail(email string) (string, string) {
	parts := strings.FieldsFunc(LocalPart(email), func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

// LocalPart returns the address up to the '@', or the whole string when no
// '@' is present.
func LocalPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// Valid is a minimal plausibility check, not RFC validation. The backends
// store emails verbatim, so anything with a non-empty local part and domain
// passes.
func Valid(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
