package parse

import (
	"strings"
	"unicode"
)

var statAbbreviations = map[string]struct{}{
	"GP": {}, "G": {}, "A": {}, "P": {}, "PIM": {}, "TOI": {},
	"SV": {}, "SA": {}, "PLUS": {}, "MINUS": {}, "+": {}, "-": {},
}

var placeholderNames = map[string]struct{}{
	"---": {}, "###": {}, "...": {}, "N/A": {}, "TBD": {}, "UNKNOWN": {},
}

var ordinalSuffixes = []string{"st", "nd", "rd", "th"}

// IsPlausiblePlayerName decides whether a table cell can be a player name
// rather than a header, ordinal, abbreviation or placeholder. When the text has
// a parenthesized suffix only the part before it is judged.
func IsPlausiblePlayerName(text string) bool {
	candidate := strings.TrimSpace(text)
	if len([]rune(candidate)) < 3 {
		return false
	}

	if base, _, ok := SplitInlinePosition(candidate); ok {
		if len([]rune(base)) < 3 {
			return false
		}
		candidate = base
	}

	if isDigits(candidate) || isDigits(strings.ReplaceAll(candidate, ".", "")) {
		return false
	}

	if isOrdinal(candidate) {
		return false
	}

	upper := strings.ToUpper(candidate)
	if _, ok := statAbbreviations[upper]; ok {
		return false
	}

	letters, total := 0, 0
	for _, r := range candidate {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 {
		return false
	}
	if float64(letters)/float64(total) < 0.5 {
		return false
	}

	first := []rune(candidate)[0]
	if !unicode.IsLetter(first) {
		return false
	}

	if _, ok := placeholderNames[upper]; ok {
		return false
	}

	return true
}

func isOrdinal(text string) bool {
	lower := strings.ToLower(text)
	for _, suffix := range ordinalSuffixes {
		if strings.HasSuffix(lower, suffix) {
			prefix := strings.TrimSpace(lower[:len(lower)-len(suffix)])
			if isDigits(prefix) {
				return true
			}
		}
	}
	return false
}
