package forecast

import (
	"time"

	"github.com/shopspring/decimal"

	"PriceOracle/internal/model"
)

// Assemble pairs predicted values with calendar dates. Value i (1-based)
// belongs to the local calendar day i days after now and is rounded to
// two decimals.
func Assemble(values []float64, now time.Time) []model.ForecastPoint {
	y, m, d := now.Date()
	points := make([]model.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = model.ForecastPoint{
			Date:  time.Date(y, m, d+i+1, 0, 0, 0, 0, now.Location()),
			Value: decimal.NewFromFloat(v).Round(2),
		}
	}
	return points
}
