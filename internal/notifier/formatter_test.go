package notifier

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PriceOracle/internal/model"
)

func TestFormatForecast(t *testing.T) {
	r := &model.Result{
		Item: model.ItemInfo{Name: "Sticker | <Team> & Co", Type: "Remarkable Sticker"},
		Summary: model.HistorySummary{
			Sales: 321, Days: 40, LastPrice: 12.5, SMA7: 12.1, Low30d: 10, High30d: 14,
		},
		Forecast: []model.ForecastPoint{
			{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("12.6")},
			{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("12.75")},
		},
	}
	out := FormatForecast(r, "руб.")

	for _, want := range []string{
		"<b>STICKER | &lt;TEAM&gt; &amp; CO</b>",
		"Тип: Remarkable Sticker",
		"Продажи: 321 шт.",
		"01.02.2024 - 12.60 руб.",
		"02.02.2024 - 12.75 руб.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatForecast() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatError(t *testing.T) {
	out := FormatError(errors.New("get_market_item - get_item - status <429>"))
	if !strings.Contains(out, "get_market_item - get_item - status &lt;429&gt;") {
		t.Errorf("FormatError() = %q", out)
	}
}

func TestFormatStart(t *testing.T) {
	if out := FormatStart("<Ann>"); !strings.Contains(out, "&lt;Ann&gt;") {
		t.Errorf("FormatStart() did not escape name: %q", out)
	}
}

func TestItemKeyboard(t *testing.T) {
	if ItemKeyboard("") != nil {
		t.Error("ItemKeyboard(\"\") should be nil")
	}
	kb := ItemKeyboard("https://example/item")
	if len(kb.Rows) != 1 || kb.Rows[0][0].URL != "https://example/item" {
		t.Errorf("ItemKeyboard() = %+v", kb)
	}
}
