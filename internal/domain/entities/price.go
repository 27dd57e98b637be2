package entities

import (
	"time"
)

// PriceQuote is the latest close price of a token in its chain's quote token.
// A nil Price means upstream had no data point.
type PriceQuote struct {
	Price     *float64  `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Available reports whether the quote carries a price
func (q *PriceQuote) Available() bool {
	return q != nil && q.Price != nil
}
