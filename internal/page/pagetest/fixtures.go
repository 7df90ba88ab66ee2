package pagetest

import (
	"fmt"
	"strings"
)

// RosterRow is one row of a synthetic roster table laid out like the live site.
type RosterRow struct {
	Jersey, Name, Age, BirthYear, Hometown, Height, Weight, Shoots, Position string
}

func (r RosterRow) html(id int) string {
	const (
		hm  = "SortTable_trow__T6wLH SortTable_hideMobile__X1I3z"
		hml = "SortTable_trow__T6wLH SortTable_hideMobile__X1I3z SortTable_left__VX4mw"
	)
	var b strings.Builder
	b.WriteString("<tr>")
	fmt.Fprintf(&b, `<td class="SortTable_trow__T6wLH SortTable_right__s2qUT">%s</td>`, r.Jersey)
	fmt.Fprintf(&b, `<td class="SortTable_trow__T6wLH SortTable_sticky__q1"><div class="Roster_player__e6EbP"><a class="TextLink_link__RhSiC" href="/player/%d/p">%s</a></div></td>`, id, r.Name)
	fmt.Fprintf(&b, `<td class="%s">USA</td>`, hm)
	fmt.Fprintf(&b, `<td class="%s">%s</td>`, hm, r.Age)
	fmt.Fprintf(&b, `<td class="SortTable_trow__T6wLH SortTable_left__VX4mw"><span>%s</span></td>`, r.BirthYear)
	fmt.Fprintf(&b, `<td class="%s"><a class="TextLink_link__RhSiC" href="/town">%s</a></td>`, hml, r.Hometown)
	fmt.Fprintf(&b, `<td class="%s">%s</td>`, hm, r.Height)
	fmt.Fprintf(&b, `<td class="%s">%s</td>`, hm, r.Weight)
	fmt.Fprintf(&b, `<td class="%s">%s</td>`, hm, r.Shoots)
	fmt.Fprintf(&b, `<td class="%s">%s</td>`, hml, r.Position)
	b.WriteString("</tr>")
	return b.String()
}

// RosterPage renders a team roster page. Player links are numbered from 1.
func RosterPage(rows ...RosterRow) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Roster</title></head><body><main><table><tbody>")
	for i, row := range rows {
		b.WriteString(row.html(i + 1))
	}
	b.WriteString("</tbody></table></main></body></html>")
	return b.String()
}

// StatsRow renders a rank cell, a name cell and right-aligned value cells.
func StatsRow(name string, values ...string) string {
	var b strings.Builder
	b.WriteString(`<tr><td class="rank">1</td>`)
	fmt.Fprintf(&b, `<td class="name">%s</td>`, name)
	for _, v := range values {
		fmt.Fprintf(&b, `<td class="SortTable_right__x">%s</td>`, v)
	}
	b.WriteString("</tr>")
	return b.String()
}

// StatsPage wraps stats rows in a sectioned table with a header row.
func StatsPage(rows ...string) string {
	return `<html><body><section><table><thead><tr><th>#</th><th>Player</th><th>GP</th></tr></thead><tbody>` +
		strings.Join(rows, "") + `</tbody></table></section></body></html>`
}

// LeaguePage renders a league page whose team list sits in the second
// section div, as on most league pages.
func LeaguePage(title string, links ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><section><div>Standings</div><div><ul>", title)
	for _, l := range links {
		b.WriteString(l)
	}
	b.WriteString("</ul></div></section></body></html>")
	return b.String()
}

// TeamLink renders one league-page list item.
func TeamLink(href, name string) string {
	return fmt.Sprintf(`<li><span><a href="%s">%s</a></span></li>`, href, name)
}
