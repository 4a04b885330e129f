package domain

import (
	"regexp"
	"strconv"
)

// Base36Alphabet lists the id digits in place-value order. Share URLs only
// ever carry lowercase ids; changing the alphabet breaks existing links.
const Base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var idPattern = regexp.MustCompile(`(?i)^[0-9a-z]+$`)

// FormatID renders a non-negative counter value as a lowercase base-36 id.
// Zero renders as "0".
func FormatID(n int64) string {
	return strconv.FormatInt(n, 36)
}

// ParseID interprets id as a base-36 counter value. It reports false for
// ids that do not round-trip back to the same string (uppercase letters, a
// sign prefix, leading zeros), so such ids are ignored when recovering the
// counter from existing sessions.
func ParseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 36, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	if strconv.FormatInt(n, 36) != id {
		return 0, false
	}
	return n, true
}

// ValidID reports whether id is acceptable in a share URL. Validation is
// case-insensitive even though generation always emits lowercase.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
