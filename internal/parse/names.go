package parse

import "strings"

var captainMarkers = map[string]struct{}{
	"":   {},
	"A":  {},
	"C":  {},
	"AC": {},
	"CA": {},
}

var goaltenderMarkers = map[string]struct{}{
	"G":          {},
	"G/A":        {},
	"GOALIE":     {},
	"GOALTENDER": {},
}

// IsCaptainMarker reports whether a name token is only a captaincy letter
// (or is too short to be a name once all whitespace is removed).
func IsCaptainMarker(name string) bool {
	compact := CompactWhitespace(name)
	if _, ok := captainMarkers[strings.ToUpper(compact)]; ok {
		return true
	}
	return len([]rune(compact)) <= 1
}

// StripCaptainSuffix drops a trailing " A" or " C" captaincy suffix.
func StripCaptainSuffix(name string) string {
	if strings.HasSuffix(name, " A") || strings.HasSuffix(name, " C") {
		return strings.TrimSpace(name[:len(name)-2])
	}
	return name
}

// SplitInlinePosition separates "Smith (D)" into "Smith" and "D". ok is false
// when the name carries no well-formed parenthesized suffix.
func SplitInlinePosition(name string) (base, position string, ok bool) {
	open := strings.Index(name, "(")
	if open < 0 {
		return name, "", false
	}
	closing := strings.Index(name[open:], ")")
	if closing <= 0 {
		return name, "", false
	}
	closing += open
	return strings.TrimSpace(name[:open]), strings.TrimSpace(name[open+1 : closing]), true
}

// CleanName trims a name and removes any parenthesized position suffix.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if base, _, ok := SplitInlinePosition(name); ok {
		return base
	}
	return name
}

// NormalizeName is the linkage key used to pair roster and stats rows.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(CleanName(name)))
}

// IsGoaltender reports goalie markers such as "G" or "G/A".
func IsGoaltender(position string) bool {
	_, ok := goaltenderMarkers[strings.ToUpper(strings.TrimSpace(position))]
	return ok
}

// IsSideIndicator reports a bare "L" or "R". On this site that is shooting-side
// leakage into the position column, not a position.
func IsSideIndicator(position string) bool {
	switch strings.ToUpper(strings.TrimSpace(position)) {
	case "L", "R":
		return true
	}
	return false
}

// IsExcludedPosition reports positions whose rows must be dropped entirely.
func IsExcludedPosition(position string) bool {
	return IsGoaltender(position) || IsSideIndicator(position)
}
