package forecast

import (
	"errors"
	"fmt"
	"strings"
)

// Regressor is a supervised model mapping a feature row to one value.
// Implementations are not safe for concurrent use; build one per request.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
}

// ModelKind selects the regressor implementation.
type ModelKind string

const (
	ModelBoosting ModelKind = "gbt"
	ModelLinear   ModelKind = "linear"
	ModelForest   ModelKind = "forest"
)

// DefaultSeed seeds every randomized regressor unless configured otherwise.
const DefaultSeed uint64 = 42

var errNotFitted = errors.New("model is not fitted")

// ParseModelKind validates a configured model name. Empty means the default.
func ParseModelKind(s string) (ModelKind, error) {
	switch k := ModelKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return ModelBoosting, nil
	case ModelBoosting, ModelLinear, ModelForest:
		return k, nil
	default:
		return "", fmt.Errorf("unknown model %q (want gbt, linear or forest)", s)
	}
}

// NewRegressor builds a fresh, unfitted regressor of the given kind.
func NewRegressor(kind ModelKind, seed uint64) (Regressor, error) {
	switch kind {
	case ModelBoosting, "":
		return NewGradientBoosting(), nil
	case ModelLinear:
		return &LinearRegression{}, nil
	case ModelForest:
		return NewRandomForest(seed), nil
	default:
		return nil, fmt.Errorf("unknown model %q", kind)
	}
}

func checkTrainingSet(X [][]float64, y []float64) (width int, err error) {
	if len(X) == 0 {
		return 0, errors.New("empty training set")
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%d feature rows but %d targets", len(X), len(y))
	}
	width = len(X[0])
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return width, nil
}
