package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastDateLayout is the user-facing date format (DD.MM.YYYY).
const ForecastDateLayout = "02.01.2006"

// ForecastPoint is a predicted price for one future day.
type ForecastPoint struct {
	Date  time.Time
	Value decimal.Decimal
}

func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string          `json:"date"`
		Value json.RawMessage `json:"value"`
	}{
		Date:  p.Date.Format(ForecastDateLayout),
		Value: json.RawMessage(p.Value.StringFixed(2)),
	})
}

// HistorySummary holds descriptive figures over the normalized series.
type HistorySummary struct {
	Sales     int     `json:"sales"`
	Days      int     `json:"days"`
	LastPrice float64 `json:"last_price"`
	SMA7      float64 `json:"sma_7"`
	Low30d    float64 `json:"low_30d"`
	High30d   float64 `json:"high_30d"`
	// Position30d is where LastPrice sits within the 30-day range (0.0~1.0).
	Position30d float64 `json:"position_30d"`
}

// ItemInfo is the display metadata handed back with a forecast.
type ItemInfo struct {
	AppID   int    `json:"app_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	IconURL string `json:"icon_url"`
	URL     string `json:"url"`
}

// Result is the successful outcome of one pipeline run.
type Result struct {
	Item     ItemInfo        `json:"item"`
	Summary  HistorySummary  `json:"summary"`
	Forecast []ForecastPoint `json:"forecast"`
}

// Info projects the display metadata of an item.
func (it *MarketItem) Info() ItemInfo {
	return ItemInfo{
		AppID:   it.AppID,
		Name:    it.Name,
		Type:    it.Type,
		IconURL: it.IconURL,
		URL:     it.URL,
	}
}
