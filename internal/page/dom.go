package page

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/cockroachdb/errors"
)

var selectorCache sync.Map // string -> cascadia.Selector

func compile(query string) (cascadia.Selector, error) {
	if cached, ok := selectorCache.Load(query); ok {
		return cached.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(query)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid selector %q", query)
	}
	selectorCache.Store(query, sel)
	return sel, nil
}

// Snapshot is a parsed copy of a page's DOM.
type Snapshot struct {
	doc *goquery.Document
}

// ParseHTML converts raw HTML into a queryable snapshot.
func ParseHTML(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}
	return &Snapshot{doc: doc}, nil
}

func (s *Snapshot) FindAll(query string) ([]Element, error) {
	sel, err := compile(query)
	if err != nil {
		return nil, err
	}
	return wrapSelection(s.doc.FindMatcher(sel)), nil
}

func (s *Snapshot) Title() string {
	return collapse(s.doc.Find("title").First().Text())
}

func (s *Snapshot) HTML() (string, error) {
	return goquery.OuterHtml(s.doc.Selection)
}

type domElement struct {
	sel *goquery.Selection
}

func wrapSelection(sel *goquery.Selection) []Element {
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, domElement{sel: s})
	})
	return out
}

func (e domElement) Text() string {
	return collapse(e.sel.Text())
}

func (e domElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e domElement) Find(query string) []Element {
	sel, err := compile(query)
	if err != nil {
		return nil
	}
	return wrapSelection(e.sel.FindMatcher(sel))
}

func (e domElement) Closest(query string) (Element, bool) {
	sel, err := compile(query)
	if err != nil {
		return nil, false
	}
	found := e.sel.ClosestMatcher(sel)
	if found.Length() == 0 {
		return nil, false
	}
	return domElement{sel: found.First()}, true
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
