// Package normalize converts raw scraped strings into canonical typed values.
//
// Every function here is pure: no I/O, no package state beyond static lookup
// tables. Callers decide what to do with "missing" results.
package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	NoClub      = "Without Club"
	NoLeague    = "Unknown League"
	Undisclosed = "Undisclosed"
	NoPosition  = "Unknown"
)

// Sanitize trims raw and substitutes fallback for empty input or a lone "-".
func Sanitize(raw, fallback string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return fallback
	}
	return s
}

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitName splits a full player name into first and last name. A single
// token name is used for both.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// ParseAge reads the leading integer of raw ("23", "23 yrs"). Anything outside
// 1..99 is treated as missing.
func ParseAge(raw string) *int {
	s := strings.TrimSpace(raw)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == 0 {
		return nil
	}
	if end > 0 {
		s = s[:end]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n >= 100 {
		return nil
	}
	return &n
}
