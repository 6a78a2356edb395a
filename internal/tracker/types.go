package tracker

import (
	"errors"
	"math"
	"time"
)

// ErrPriceNotFound is returned by Search when no rule yields a positive price.
var ErrPriceNotFound = errors.New("price not found")

// ErrInvalidPrice is returned by a Recorder asked to store a price that is not
// a finite, strictly positive number.
var ErrInvalidPrice = errors.New("price must be a positive finite number")

// Observation is one recorded (url, title, price, timestamp) tuple.
type Observation struct {
	ID        int64     `json:"id"`
	URL       string    `json:"product_url"`
	Title     string    `json:"product_title"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Page is the raw result of fetching a product URL.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Result is what a successful search returns to the caller.
type Result struct {
	URL     string
	Title   string
	Price   float64
	Rule    string
	History []Observation
}

// ValidatePrice reports ErrInvalidPrice for zero, negative, NaN or infinite prices.
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}
