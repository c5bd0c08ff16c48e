package demand

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var epsilon = math.Nextafter(1, 2) - 1

// Regression is an ordinary least-squares linear fit.
type Regression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// FitOLS solves min ||y - Xb - c|| with an intercept. Rank-deficient designs
// get the minimum-norm solution, so constant columns or a constant target
// never fail.
func FitOLS(x [][]float64, y []float64) (Regression, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return Regression{}, fmt.Errorf("fit ols: %d rows, %d targets", n, len(y))
	}
	p := len(x[0])

	xMean := make([]float64, p)
	for _, row := range x {
		if len(row) != p {
			return Regression{}, fmt.Errorf("fit ols: ragged design matrix")
		}
		floats.Add(xMean, row)
	}
	floats.Scale(1/float64(n), xMean)
	yMean := stat.Mean(y, nil)

	centered := mat.NewDense(n, p, nil)
	target := mat.NewDense(n, 1, nil)
	for i, row := range x {
		for j, v := range row {
			centered.Set(i, j, v-xMean[j])
		}
		target.Set(i, 0, y[i]-yMean)
	}

	coef := make([]float64, p)
	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return Regression{}, errors.New("fit ols: svd did not converge")
	}
	rank := svd.Rank(epsilon * float64(max(n, p)))
	if rank > 0 {
		var beta mat.Dense
		svd.SolveTo(&beta, target, rank)
		for j := range coef {
			coef[j] = beta.At(j, 0)
		}
	}

	return Regression{
		Coefficients: coef,
		Intercept:    yMean - floats.Dot(xMean, coef),
	}, nil
}

func (r Regression) Predict(x []float64) float64 {
	return floats.Dot(r.Coefficients, x) + r.Intercept
}

// fitMetrics returns in-sample MAE and R². A constant target reports R² of 1
// for an exact fit and 0 otherwise.
func fitMetrics(actual, predicted []float64) (mae, r2 float64) {
	var absErr, ssRes float64
	for i := range actual {
		d := actual[i] - predicted[i]
		absErr += math.Abs(d)
		ssRes += d * d
	}
	mae = absErr / float64(len(actual))

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, v := range actual {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot < epsilon {
		if ssRes < 1e-12 {
			return mae, 1
		}
		return mae, 0
	}
	return mae, stat.RSquaredFrom(predicted, actual, nil)
}
