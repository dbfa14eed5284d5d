package forecast

// LagMatrix builds supervised training rows from a daily price series.
// Row t (for t >= lags) has features [p[t-1], p[t-2], ..., p[t-lags]] and
// target p[t]; the first lags days have no complete history and are dropped.
func LagMatrix(prices []float64, lags int) (X [][]float64, y []float64) {
	if lags <= 0 || len(prices) <= lags {
		return nil, nil
	}
	X = make([][]float64, 0, len(prices)-lags)
	y = make([]float64, 0, len(prices)-lags)
	for t := lags; t < len(prices); t++ {
		row := make([]float64, lags)
		for k := 1; k <= lags; k++ {
			row[k-1] = prices[t-k]
		}
		X = append(X, row)
		y = append(y, prices[t])
	}
	return X, y
}
