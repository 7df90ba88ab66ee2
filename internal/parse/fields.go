// Package parse turns raw page text into typed values. Everything here is pure
// and avoids regular expressions; each rule is a plain string scan.
package parse

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseInt keeps only the decimal digits of text and parses them, returning 0
// when none are present. "6'1\"" becomes 61, "Age 17" becomes 17.
func ParseInt(text string) int {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// ParseAge reads an age cell. Same digit-extraction rule as ParseInt.
func ParseAge(text string) int {
	return ParseInt(text)
}

// ParseStat strictly parses a numeric stats cell. Signs are accepted, anything
// else (including "-" placeholders) is rejected.
func ParseStat(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SeasonStartYear returns the first year of a "2025-2026" style season, or 0.
func SeasonStartYear(season string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(season), "-")
	if len(head) != 4 || !isDigits(head) {
		return 0
	}
	n, _ := strconv.Atoi(head)
	return n
}

// BirthYear derives a birth year from an age relative to referenceYear.
func BirthYear(age, referenceYear int) int {
	if age <= 0 || referenceYear <= 0 {
		return 0
	}
	return referenceYear - age
}

// NormalizeShoots keeps only the L/R shooting-side markers.
func NormalizeShoots(text string) string {
	switch s := strings.ToUpper(strings.TrimSpace(text)); s {
	case "L", "R":
		return s
	default:
		return ""
	}
}

// CompactWhitespace removes every whitespace rune, non-breaking spaces included.
func CompactWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
