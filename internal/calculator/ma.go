package calculator

import (
	"errors"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateSMA7 returns the 7-day simple moving average of a daily series.
// Shorter series are averaged over every available day.
func CalculateSMA7(daily []float64) (float64, error) {
	period := 7
	if len(daily) < period {
		period = len(daily)
	}
	return CalculateSMA(daily, period)
}
