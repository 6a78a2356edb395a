package extract

import (
	"strconv"
	"strings"
)

// Outcome classifies a single price extraction attempt.
type Outcome int

// Possible outcomes of ParsePrice.
const (
	NotFound Outcome = iota
	Found
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Malformed:
		return "malformed"
	default:
		return "not_found"
	}
}

// Result is the explicit outcome of parsing one candidate text.
type Result struct {
	Outcome Outcome
	Value   float64
	Cleaned string
}

// CleanPriceText keeps digits, commas and periods. When both separators are
// present the comma is a thousands separator and is dropped; a lone comma is
// a decimal separator and becomes a period.
func CleanPriceText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasComma && strings.Contains(cleaned, "."):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	return cleaned
}

// ParsePrice cleans text and parses it as a strictly positive price.
// Empty text and non-positive values are NotFound; text that does not parse
// as a number is Malformed.
func ParsePrice(text string) Result {
	cleaned := CleanPriceText(text)
	if cleaned == "" {
		return Result{Outcome: NotFound}
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Result{Outcome: Malformed, Cleaned: cleaned}
	}
	if value <= 0 {
		return Result{Outcome: NotFound, Cleaned: cleaned}
	}
	return Result{Outcome: Found, Value: value, Cleaned: cleaned}
}
