package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// MarkupScanRule names the regular-expression fallback in a Match.
const MarkupScanRule = "markup-scan"

// Rule pairs an element selector with the function that reads candidate text.
type Rule struct {
	Name    string
	Matcher goquery.Matcher
	Text    func(*goquery.Selection) string
}

// Match is a successfully extracted price and the rule that produced it.
type Match struct {
	Price float64
	Rule  string
}

var wholePrice = cascadia.MustCompile("span.a-price-whole")

// PriceRules lists the price rules in priority order.
var PriceRules = []Rule{
	newRule("span.a-price-whole"),
	newRule("span.a-offscreen"),
	newRule("span#priceblock_ourprice"),
	newRule("span#priceblock_dealprice"),
	newRule("span.a-price"),
	newRule("span.a-color-price"),
	newRule("span.a-price-symbol"),
	newRule("span.a-text-price"),
}

var pricePattern = regexp.MustCompile(`[$£€]?\s*\d+(?:[.,]\d{2})?`)

func newRule(selector string) Rule {
	return Rule{
		Name:    selector,
		Matcher: cascadia.MustCompile(selector),
		Text:    candidateText,
	}
}

// ParseDocument parses raw markup into a queryable document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

// Price runs PriceRules and then the markup scan. The boolean is false when
// no positive price exists anywhere in the document.
func Price(doc *goquery.Document) (Match, bool) {
	for _, rule := range PriceRules {
		if m, ok := rule.Evaluate(doc); ok {
			return m, true
		}
	}
	markup, err := doc.Html()
	if err != nil {
		return Match{}, false
	}
	return ScanMarkup(markup)
}

// Evaluate tries every element matched by the rule in document order and
// returns the first positive price.
func (r Rule) Evaluate(doc *goquery.Document) (Match, bool) {
	var (
		match Match
		found bool
	)
	doc.FindMatcher(r.Matcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		res := ParsePrice(r.Text(s))
		if res.Outcome != Found {
			return true
		}
		match = Match{Price: res.Value, Rule: r.Name}
		found = true
		return false
	})
	return match, found
}

// ScanMarkup applies the currency regular expression to raw markup and
// returns the first match that parses as a positive price.
func ScanMarkup(markup string) (Match, bool) {
	for _, candidate := range pricePattern.FindAllString(markup, -1) {
		if res := ParsePrice(candidate); res.Outcome == Found {
			return Match{Price: res.Value, Rule: MarkupScanRule}, true
		}
	}
	return Match{}, false
}

// candidateText returns the element's trimmed text, or for a currency-symbol
// fragment the text of the following whole-price sibling.
func candidateText(s *goquery.Selection) string {
	text := strings.TrimSpace(s.Text())
	if class, _ := s.Attr("class"); strings.Contains(class, "symbol") {
		if next := s.NextAllMatcher(wholePrice).First(); next.Length() > 0 {
			text = strings.TrimSpace(next.Text())
		}
	}
	return text
}
