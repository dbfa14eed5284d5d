package forecast

import (
	"math"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/model"
)

const (
	trainStage   = "train_model"
	predictStage = "predict"
)

// Forecaster predicts the next Horizon daily prices from the last Lags days.
type Forecaster struct {
	Lags    int
	Horizon int
	// MinRows is the minimum number of training rows; 0 means Lags+1.
	MinRows int
	// NewRegressor builds the model for one run. nil means gradient boosting.
	NewRegressor func() Regressor
}

func (f Forecaster) minRows() int {
	if f.MinRows > 0 {
		return f.MinRows
	}
	return f.Lags + 1
}

// Predict trains a fresh regressor on s and rolls it forward Horizon days.
//
// Each prediction is fed back as lag_1 for the next step, so errors compound
// with the horizon.
func (f Forecaster) Predict(s model.Series) ([]float64, error) {
	prices := s.Prices()
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, failure.New(trainStage, failure.ModelFitError, "non-finite price at day %d", i)
		}
	}

	X, y := LagMatrix(prices, f.Lags)
	if len(X) < f.minRows() {
		return nil, failure.New(trainStage, failure.InsufficientHistory,
			"%d days give %d training rows, need %d", len(prices), len(X), f.minRows())
	}

	var reg Regressor
	if f.NewRegressor != nil {
		reg = f.NewRegressor()
	} else {
		reg = NewGradientBoosting()
	}
	if err := reg.Fit(X, y); err != nil {
		return nil, failure.Newf(trainStage, failure.ModelFitError, err, "fit: %v", err)
	}

	window := NewLagWindow(prices, f.Lags)
	out := make([]float64, 0, f.Horizon)
	for step := 1; step <= f.Horizon; step++ {
		v, err := reg.Predict(window.Features())
		if err != nil {
			return nil, failure.Newf(predictStage, failure.ModelPredictError, err, "step %d: %v", step, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, failure.New(predictStage, failure.ModelPredictError, "step %d: non-finite prediction", step)
		}
		out = append(out, v)
		window.Push(v)
	}
	return out, nil
}
