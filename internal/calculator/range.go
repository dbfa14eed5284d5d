package calculator

import (
	"errors"
	"math"
)

// CalculateRange scans the most recent window values and returns the high and low.
func CalculateRange(values []float64, window int) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	n := len(values)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if values[i] > high {
			high = values[i]
		}
		if values[i] < low {
			low = values[i]
		}
	}
	return high, low, nil
}

// Calculate30DayRange returns the high and low of the last 30 calendar days.
func Calculate30DayRange(daily []float64) (high, low float64, err error) {
	return CalculateRange(daily, 30)
}

// CalculatePosition returns where current sits within [low, high] (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
