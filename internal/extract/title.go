package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// TitleNotFound is returned by Title when no title element exists.
const TitleNotFound = "Title not found"

var titleSelectors = []cascadia.Selector{
	cascadia.MustCompile("span#productTitle"),
	cascadia.MustCompile("h1#title"),
	cascadia.MustCompile("h1.product-title"),
}

// Title returns the trimmed text of the first product-title element found.
func Title(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if s := doc.FindMatcher(sel).First(); s.Length() > 0 {
			return strings.TrimSpace(s.Text())
		}
	}
	return TitleNotFound
}
