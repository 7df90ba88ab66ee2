package locate

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/page/pagetest"
)

type countingFinder struct {
	snap    *page.Snapshot
	queries []string
}

func (f *countingFinder) FindAll(ctx context.Context, query string) ([]page.Element, error) {
	f.queries = append(f.queries, query)
	return f.snap.FindAll(query)
}

func newFinder(t *testing.T, html string) *countingFinder {
	t.Helper()
	snap, err := page.ParseHTML(html)
	require.NoError(t, err)
	return &countingFinder{snap: snap}
}

func TestLocateStopsAtFirstNonEmptyStrategy(t *testing.T) {
	finder := newFinder(t, `<ul><li class="x">1</li><li class="x">2</li><li class="x">3</li><li class="x">4</li></ul>`)
	locator := New(nil, nil)

	result := locator.Run(context.Background(), finder, []Strategy{
		Query("first", "p.none"),
		Query("second", "div.none"),
		Query("third", "li.x"),
		Query("fourth", "li"),
	})

	assert.True(t, result.Found())
	assert.Equal(t, "third", result.Strategy)
	assert.Len(t, result.Elements, 4)
	assert.Equal(t, []string{"p.none", "div.none", "li.x"}, finder.queries)
}

func TestLocateExhaustionIsNotAnError(t *testing.T) {
	finder := newFinder(t, `<p>nothing here</p>`)
	locator := New(Catalog{KindStatsTable: {Query("a", "table"), Query("b", "main table")}}, nil)

	result := locator.Locate(context.Background(), finder, KindStatsTable)

	assert.False(t, result.Found())
	assert.Empty(t, result.Strategy)
	assert.Empty(t, result.Elements)
}

func TestLocateTreatsStrategyErrorsAsEmpty(t *testing.T) {
	finder := newFinder(t, `<table><tr><td>1</td></tr></table>`)
	broken := Strategy{
		Name: "broken",
		Find: func(context.Context, page.Finder) ([]page.Element, error) {
			return nil, errors.New("stale element")
		},
	}

	result := New(nil, nil).Run(context.Background(), finder, []Strategy{
		broken,
		Query("invalid", "td[["),
		Query("cells", "td"),
	})

	assert.Equal(t, "cells", result.Strategy)
	assert.Len(t, result.Elements, 1)
}

func TestDefaultCatalogTeamLinkFallback(t *testing.T) {
	const season = "2025-2026"
	driver := pagetest.New().Set("https://x.test/league/nahl/2025-2026", `<html><body>
<div><a href="/team/1/hawks/2025-2026">Hawks</a>
<a href="/team/1/hawks/2025-2026/stats">Hawks stats</a>
<a href="/team/2/wolves/2025-2026/schedule">Wolves schedule</a>
<a href="/team/3/bears/2025-2026">Bears</a>
<a href="/team/4/owls/2024-2025">Owls</a></div></body></html>`)
	require.NoError(t, driver.Navigate(context.Background(), "https://x.test/league/nahl/2025-2026", 0))

	result := New(DefaultCatalog(season), nil).Locate(context.Background(), driver, KindTeamLinks)

	require.True(t, result.Found())
	assert.Equal(t, "season-team-anchor", result.Strategy)
	var names []string
	for _, el := range result.Elements {
		names = append(names, el.Text())
	}
	assert.Equal(t, []string{"Hawks", "Bears"}, names)
}

func TestDefaultCatalogPrefersSectionLists(t *testing.T) {
	driver := pagetest.New().Set("u", `<section><div>header</div><div><ul>
<li><span><a href="/team/10/a/2025-2026">A</a></span></li>
<li><span><a href="/team/11/b/2025-2026">B</a></span></li></ul></div></section>`)
	require.NoError(t, driver.Navigate(context.Background(), "u", 0))

	result := New(DefaultCatalog("2025-2026"), nil).Locate(context.Background(), driver, KindTeamLinks)

	assert.Equal(t, "section-div2-list", result.Strategy)
	assert.Len(t, result.Elements, 2)
}
