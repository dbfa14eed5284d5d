package steam

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"PriceOracle/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64 // base price for generated history
	Days  int     // number of generated daily entries
	Item  *model.MarketItem
	Err   error
}

func (m *MockFetcher) FetchItem(_ context.Context, l Listing) (*model.MarketItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Item != nil {
		return m.Item, nil
	}
	days := m.Days
	if days <= 0 {
		days = 30
	}
	return &model.MarketItem{
		AppID:        l.AppID,
		Name:         l.Name,
		Type:         "Mock Item",
		IconURL:      iconBaseURL + "mock",
		URL:          ListingPrefix + strconv.Itoa(l.AppID) + "/mock",
		PriceHistory: generateMockHistory(m.Price, days),
	}, nil
}

// generateMockHistory produces one entry per day ending yesterday, in the
// page's timestamp format.
func generateMockHistory(basePrice float64, count int) []model.PriceHistoryEntry {
	if basePrice <= 0 {
		basePrice = 100
	}
	start := time.Now().UTC().AddDate(0, 0, -count)
	entries := make([]model.PriceHistoryEntry, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		day := start.AddDate(0, 0, i)
		entries[i] = model.PriceHistoryEntry{
			Timestamp: day.Format("Jan 02 2006") + " 01: +0",
			Price:     decimal.NewFromFloat(p).Round(3),
			Volume:    fmt.Sprint(10 + i%5),
		}
	}
	return entries
}
