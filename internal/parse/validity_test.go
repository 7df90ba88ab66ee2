package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlausiblePlayerName(t *testing.T) {
	testCases := []struct {
		text string
		want bool
	}{
		{"John Smith", true},
		{"O'Brien (C)", true},
		{"Jean-Luc Picard", true},
		{"Sami Ääritalo", true},
		{"Ty (D)", false},
		{"GP", false},
		{"12", false},
		{"12.5", false},
		{"1st", false},
		{"22nd", false},
		{"3 rd", false},
		{"A", false},
		{"C", false},
		{"---", false},
		{"", false},
		{"   ", false},
		{"PIM", false},
		{"toi", false},
		{"Plus", false},
		{"N/A", false},
		{"TBD", false},
		{"Unknown", false},
		{"A1234", false},
		{"#4 Lee", false},
		{"Smith", true},
		{"Smithson 4th", true},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPlausiblePlayerName(tc.text))
		})
	}
}

func TestIsPlausiblePlayerNameOnlyJudgesTextBeforeParenthesis(t *testing.T) {
	assert.True(t, IsPlausiblePlayerName("Smith (12)"))
	assert.False(t, IsPlausiblePlayerName("123 (Smith)"))
}
