package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	assert.Equal(t, 17, ParseAge("17"))
	assert.Equal(t, 17, ParseAge("Age: 17 "))
	assert.Equal(t, 0, ParseAge(""))
	assert.Equal(t, 0, ParseInt("n/a"))
	assert.Equal(t, 2007, ParseInt("2007"))
}

func TestParseStat(t *testing.T) {
	n, ok := ParseStat(" 12 ")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = ParseStat("-3")
	assert.True(t, ok)
	assert.Equal(t, -3, n)

	for _, bad := range []string{"", "-", "1.5", "12a"} {
		_, ok := ParseStat(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestSeasonHelpers(t *testing.T) {
	assert.Equal(t, 2025, SeasonStartYear("2025-2026"))
	assert.Equal(t, 0, SeasonStartYear("latest"))
	assert.Equal(t, 2008, BirthYear(17, 2025))
	assert.Equal(t, 0, BirthYear(0, 2025))
}

func TestNormalizeShoots(t *testing.T) {
	assert.Equal(t, "L", NormalizeShoots(" l "))
	assert.Equal(t, "R", NormalizeShoots("R"))
	assert.Equal(t, "", NormalizeShoots("6'1\""))
}
