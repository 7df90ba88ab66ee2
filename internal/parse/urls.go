package parse

import (
	"net/url"
	"strings"
)

// UnknownLeague is returned when a league URL has no recognizable league segment.
const UnknownLeague = "UNKNOWN"

// TeamLink is the identifier pair carried by a team page URL
// (".../team/<id>/<slug>/...").
type TeamLink struct {
	ID   string
	Slug string
}

// PathSegments splits a URL (absolute or relative) into its non-empty path segments.
func PathSegments(rawURL string) []string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil
	}
	var out []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// ParseTeamLink extracts the numeric team id and slug following the "team"
// segment. A link without a purely numeric id is rejected. A missing slug is
// returned empty; callers decide the fallback.
func ParseTeamLink(href string) (TeamLink, bool) {
	segments := PathSegments(href)
	idx := indexOf(segments, "team")
	if idx < 0 || idx+1 >= len(segments) {
		return TeamLink{}, false
	}

	link := TeamLink{ID: segments[idx+1]}
	if !isDigits(link.ID) {
		return TeamLink{}, false
	}
	if idx+2 < len(segments) {
		link.Slug = segments[idx+2]
	}
	return link, true
}

// SlugFromName builds the fallback slug used when a team link carries none.
func SlugFromName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// TeamURL builds the canonical season roster URL for a team.
func TeamURL(base string, link TeamLink, season string) string {
	return strings.TrimRight(base, "/") + "/team/" + link.ID + "/" + link.Slug + "/" + season
}

// Origin returns "scheme://host" for an absolute URL, or fallback otherwise.
func Origin(rawURL, fallback string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fallback
	}
	return u.Scheme + "://" + u.Host
}

// WithSeason appends "/<season>" to a league URL unless it already ends with it.
func WithSeason(leagueURL, season string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(leagueURL), "/")
	if season == "" || strings.HasSuffix(trimmed, "/"+season) {
		return trimmed
	}
	return trimmed + "/" + season
}

// StatsURL points a team URL at its statistics tab.
func StatsURL(teamURL string) string {
	u, err := url.Parse(teamURL)
	if err != nil {
		return teamURL + "?tab=stats"
	}
	q := u.Query()
	q.Set("tab", "stats")
	u.RawQuery = q.Encode()
	return u.String()
}

// LeagueName reads the league code from a league URL:
// ".../league/na3hl/2025-2026" gives "NA3HL". A trailing "-YYYY-YYYY" season
// glued onto the segment is removed.
func LeagueName(leagueURL string) string {
	segments := PathSegments(leagueURL)
	if len(segments) == 0 {
		return UnknownLeague
	}

	candidate := segments[0]
	if idx := indexOf(segments, "league"); idx >= 0 {
		if idx+1 >= len(segments) {
			return UnknownLeague
		}
		candidate = segments[idx+1]
	}

	candidate = stripSeasonSuffix(candidate)
	if candidate == "" {
		return UnknownLeague
	}
	return strings.ToUpper(candidate)
}

// LeagueSlug flattens the part of a league URL after "/league/" into a
// filesystem-safe token, e.g. "na3hl_2025-2026".
func LeagueSlug(leagueURL string) string {
	segments := PathSegments(leagueURL)
	if idx := indexOf(segments, "league"); idx >= 0 {
		segments = segments[idx+1:]
	}
	if len(segments) == 0 {
		return "unknown"
	}
	return strings.Join(segments, "_")
}

// IsSeason reports a "YYYY-YYYY" token.
func IsSeason(token string) bool {
	head, tail, ok := strings.Cut(token, "-")
	return ok && len(head) == 4 && len(tail) == 4 && isDigits(head) && isDigits(tail)
}

func stripSeasonSuffix(segment string) string {
	const seasonLen = len("-2025-2026")
	if len(segment) > seasonLen {
		suffix := segment[len(segment)-seasonLen:]
		if suffix[0] == '-' && IsSeason(suffix[1:]) {
			return segment[:len(segment)-seasonLen]
		}
	}
	return segment
}

func indexOf(segments []string, target string) int {
	for i, seg := range segments {
		if seg == target {
			return i
		}
	}
	return -1
}
