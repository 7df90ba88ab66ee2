package ingest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/page/pagetest"
)

func TestExtractStatsRows(t *testing.T) {
	driver := newFakeDriver().Set(hawks.URL+"?tab=stats", pagetest.StatsPage(
		pagetest.StatsRow("Alex", "10", "5", "3", "8", "2"),
		pagetest.StatsRow("Dana Reed (D)", "12", "1", "6", "7"),
		pagetest.StatsRow("Gary Goalie (G)", "20", "0", "1", "1", "0"),
		pagetest.StatsRow("Totals", "-", "-", "-", "-"),
		pagetest.StatsRow("12", "1", "1", "1", "1", "1"),
		`<tr><td>Short Row</td><td class="right">1</td></tr>`,
	))

	s := NewStatsExtractor(driver, testLocator(), testConfig(), WithSleep(noSleep))
	stats, err := s.ExtractStats(context.Background(), hawks, testSeason)
	require.NoError(t, err)

	want := []domain.StatsPlayer{
		{Name: "Alex", StatLine: domain.StatLine{Games: 10, Goals: 5, Assists: 3, Points: 8, PIM: 2}},
		{Name: "Dana Reed", Position: "D", StatLine: domain.StatLine{Games: 12, Goals: 1, Assists: 6, Points: 7}},
		{Name: "Totals"},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("ExtractStats() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractStatsRetriesThenGivesUp(t *testing.T) {
	statsURL := hawks.URL + "?tab=stats"
	driver := newFakeDriver().FailTimes(statsURL, 3)

	s := NewStatsExtractor(driver, testLocator(), testConfig(), WithSleep(noSleep))
	stats, err := s.ExtractStats(context.Background(), hawks, testSeason)

	require.NoError(t, err)
	assert.Empty(t, stats)
	assert.Equal(t, 3, driver.VisitCount(statsURL))
}

func TestExtractStatsWithoutTbody(t *testing.T) {
	driver := newFakeDriver().Set(hawks.URL+"?tab=stats",
		`<html><body><main><table>`+pagetest.StatsRow("Sam Lee", "3", "1", "1", "2", "0")+`</table></main></body></html>`)

	s := NewStatsExtractor(driver, testLocator(), testConfig(), WithSleep(noSleep))
	stats, err := s.ExtractStats(context.Background(), hawks, testSeason)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Games)
}

func TestRightAlignedOrder(t *testing.T) {
	assert.Equal(t, domain.StatLine{Games: 1, Goals: 2, Assists: 3, Points: 4, PIM: 5}, RightAlignedOrder.Assign([]int{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, domain.StatLine{Games: 1, Goals: 2, Assists: 3, Points: 4}, RightAlignedOrder.Assign([]int{1, 2, 3, 4}))
	assert.Equal(t, domain.StatLine{}, RightAlignedOrder.Assign([]int{1, 2, 3}))
}

func TestCustomColumnStrategy(t *testing.T) {
	driver := newFakeDriver().Set(hawks.URL+"?tab=stats", pagetest.StatsPage(pagetest.StatsRow("Alex", "99", "10", "5", "3", "8", "2")))
	skipFirst := ColumnStrategyFunc(func(values []int) domain.StatLine {
		return RightAlignedOrder.Assign(values[1:])
	})

	s := NewStatsExtractor(driver, testLocator(), testConfig(), WithSleep(noSleep)).WithColumns(skipFirst)
	stats, err := s.ExtractStats(context.Background(), hawks, testSeason)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 10, stats[0].Games)
}
