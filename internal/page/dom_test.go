package page

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosterHTML = `<html><head><title> Boston  Bandits </title></head><body>
<table>
  <tr class="row"><td class="num">12</td><td><a class="player" href="/player/1/alex">Alex
     A</a></td></tr>
  <tr class="row"><td class="num">7</td><td><a class="player" href="/player/2/sam">Sam Lee</a></td></tr>
</table></body></html>`

func TestSnapshotQueries(t *testing.T) {
	snap, err := ParseHTML(rosterHTML)
	require.NoError(t, err)
	assert.Equal(t, "Boston Bandits", snap.Title())

	links, err := snap.FindAll("a.player")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "Alex A", links[0].Text())

	href, ok := links[1].Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/player/2/sam", href)
	_, ok = links[1].Attr("data-missing")
	assert.False(t, ok)

	row, ok := links[1].Closest("tr")
	require.True(t, ok)
	cells := row.Find("td.num")
	require.Len(t, cells, 1)
	assert.Equal(t, "7", cells[0].Text())

	_, ok = links[0].Closest("section")
	assert.False(t, ok)
}

func TestInvalidSelector(t *testing.T) {
	snap, err := ParseHTML(rosterHTML)
	require.NoError(t, err)

	_, err = snap.FindAll("a[href")
	assert.Error(t, err)

	links, err := snap.FindAll("a.player")
	require.NoError(t, err)
	assert.Empty(t, links[0].Find("td[["))
}

func TestWithinScopesQueries(t *testing.T) {
	snap, err := ParseHTML(rosterHTML)
	require.NoError(t, err)
	rows, err := snap.FindAll("tr")
	require.NoError(t, err)

	links, err := Within(rows[0]).FindAll(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Alex A", links[0].Text())

	_, err = Within(rows[0]).FindAll(context.Background(), "a[")
	assert.Error(t, err)
}

func TestPositionalSelectors(t *testing.T) {
	snap, err := ParseHTML(`<section><div>one</div><div><ul><li><span><a href="/team/1/a">A</a></span></li></ul></div>
<div><ul><li><span><a href="/team/2/b">B</a></span></li></ul></div></section>`)
	require.NoError(t, err)

	third, err := snap.FindAll("section > div:nth-of-type(3) > ul > li > span > a[href*='/team/']")
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, "B", third[0].Text())
}
