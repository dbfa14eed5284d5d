package history

import (
	"github.com/rs/zerolog/log"

	"PriceOracle/internal/calculator"
	"PriceOracle/internal/model"
)

// Summarize computes the descriptive figures shown next to a forecast.
// sales is the number of raw history entries the series was built from.
func Summarize(sales int, s model.Series) model.HistorySummary {
	sum := model.HistorySummary{Sales: sales, Days: s.Len()}
	if s.Len() == 0 {
		return sum
	}
	prices := s.Prices()
	sum.LastPrice = prices[len(prices)-1]

	if sma, err := calculator.CalculateSMA7(prices); err != nil {
		log.Warn().Err(err).Msg("SMA7 calculation failed, using last price")
		sum.SMA7 = sum.LastPrice
	} else {
		sum.SMA7 = sma
	}

	if high, low, err := calculator.Calculate30DayRange(prices); err != nil {
		log.Warn().Err(err).Msg("30-day range calculation failed")
		sum.High30d, sum.Low30d = sum.LastPrice, sum.LastPrice
	} else {
		sum.High30d, sum.Low30d = high, low
	}

	if pos, err := calculator.CalculatePosition(sum.LastPrice, sum.High30d, sum.Low30d); err != nil {
		log.Warn().Err(err).Msg("30-day position calculation failed")
		sum.Position30d = 0.5
	} else {
		sum.Position30d = pos
	}
	return sum
}
