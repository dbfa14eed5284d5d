package forecast

// LagWindow holds the last L values of a series, most recent first, in the
// same order as a LagMatrix feature row.
type LagWindow struct {
	values []float64
}

// NewLagWindow seeds a window from the most recent lags values of prices.
// prices must hold at least lags values.
func NewLagWindow(prices []float64, lags int) *LagWindow {
	w := &LagWindow{values: make([]float64, lags)}
	for k := 1; k <= lags; k++ {
		w.values[k-1] = prices[len(prices)-k]
	}
	return w
}

// Features returns a copy of the window usable as a feature row.
func (w *LagWindow) Features() []float64 {
	return append([]float64(nil), w.values...)
}

// Push inserts v as lag_1 and drops the oldest value.
func (w *LagWindow) Push(v float64) {
	if len(w.values) == 0 {
		return
	}
	copy(w.values[1:], w.values[:len(w.values)-1])
	w.values[0] = v
}
