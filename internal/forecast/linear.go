package forecast

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// rankCond drops singular values below rankCond times the largest one.
const rankCond = 1e-10

// LinearRegression is ordinary least squares with an intercept. Collinear
// features get the minimum-norm solution.
type LinearRegression struct {
	coef []float64 // coef[0] is the intercept
}

func (l *LinearRegression) Fit(X [][]float64, y []float64) error {
	width, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	rows, cols := len(X), width+1
	data := make([]float64, 0, rows*cols)
	for _, row := range X {
		data = append(data, 1)
		data = append(data, row...)
	}
	a := mat.NewDense(rows, cols, data)
	b := mat.NewVecDense(rows, append([]float64(nil), y...))

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return errors.New("least squares: svd did not converge")
	}
	rank := svd.Rank(rankCond)
	if rank == 0 {
		return errors.New("least squares: design matrix has rank 0")
	}
	beta := mat.NewVecDense(cols, nil)
	svd.SolveVecTo(beta, b, rank)

	l.coef = make([]float64, cols)
	for i := range l.coef {
		l.coef[i] = beta.AtVec(i)
	}
	return nil
}

func (l *LinearRegression) Predict(x []float64) (float64, error) {
	if l.coef == nil {
		return 0, errNotFitted
	}
	if len(x) != len(l.coef)-1 {
		return 0, fmt.Errorf("got %d features, want %d", len(x), len(l.coef)-1)
	}
	out := l.coef[0]
	for i, v := range x {
		out += l.coef[i+1] * v
	}
	return out, nil
}
