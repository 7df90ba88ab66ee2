package reconciliation

import (
	"github.com/antzucaro/matchr"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/parse"
)

// DefaultNearMissThreshold is the Jaro-Winkler similarity above which two
// unpaired names are reported as probable spelling drift.
const DefaultNearMissThreshold = 0.92

// NearMiss is an unpaired roster/stats name pair that looks alike.
type NearMiss struct {
	RosterName string
	StatsName  string
	Similarity float64
}

// Matcher decides name equality. Only exact normalized equality pairs
// records; similarity is diagnostic.
type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// NamesMatch reports whether two names denote the same player.
func NamesMatch(a, b string) bool {
	return parse.NormalizeName(a) == parse.NormalizeName(b)
}

// FirstMatch returns the index of the first unconsumed stats record whose
// name matches, or -1.
func (m *Matcher) FirstMatch(name string, stats []domain.StatsPlayer, consumed []bool) int {
	key := parse.NormalizeName(name)
	for i, sp := range stats {
		if consumed[i] {
			continue
		}
		if parse.NormalizeName(sp.Name) == key {
			return i
		}
	}
	return -1
}

// NearMisses compares every unpaired roster name with every unpaired stats name.
func (m *Matcher) NearMisses(roster []domain.RosterPlayer, rosterIdx []int, stats []domain.StatsPlayer, statsIdx []int) []NearMiss {
	if m.threshold <= 0 || len(rosterIdx) == 0 || len(statsIdx) == 0 {
		return nil
	}
	var out []NearMiss
	for _, ri := range rosterIdx {
		left := parse.NormalizeName(roster[ri].Name)
		for _, si := range statsIdx {
			right := parse.NormalizeName(stats[si].Name)
			similarity := matchr.JaroWinkler(left, right, false)
			if similarity >= m.threshold {
				out = append(out, NearMiss{
					RosterName: roster[ri].Name,
					StatsName:  stats[si].Name,
					Similarity: similarity,
				})
			}
		}
	}
	return out
}
