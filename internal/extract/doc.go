// Package extract locates a product price and title in parsed markup.
//
// Prices are found by walking an ordered list of selector rules. Every
// candidate element of a rule is tried, in document order, before moving to
// the next rule; the order of PriceRules therefore defines priority. When no
// rule yields a positive price, the rendered markup is scanned with a
// currency-aware regular expression as a last resort.
package extract
