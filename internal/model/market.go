package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistoryEntry is one raw sale sample as scraped from the listing page.
// Timestamp and Volume are kept verbatim; the normalizer parses them.
type PriceHistoryEntry struct {
	Timestamp string
	Price     decimal.Decimal // converted to the display currency, 3 decimals
	Volume    string
}

// MarketItem is a single marketplace listing with its raw price history.
// It is built once per request and never mutated afterwards.
type MarketItem struct {
	AppID        int
	Name         string
	Type         string
	IconURL      string
	URL          string
	PriceHistory []PriceHistoryEntry
}

// DailyPoint is one calendar day of the normalized series.
type DailyPoint struct {
	Date   time.Time
	Price  float64
	Volume float64
}

// Series is a gap-free daily price/volume series, one point per calendar day.
type Series struct {
	Points []DailyPoint
}

func (s Series) Len() int { return len(s.Points) }

// Prices returns the price column in chronological order.
func (s Series) Prices() []float64 {
	prices := make([]float64, len(s.Points))
	for i, p := range s.Points {
		prices[i] = p.Price
	}
	return prices
}
