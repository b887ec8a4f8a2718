package metrics

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/loangate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// probClip は log(0) を避けるための確率のクリップ幅
const probClip = 1e-15

// LogLoss は二値交差エントロピーの平均を計算する
// 確率は [1e-15, 1-1e-15] にクリップされる
func LogLoss(yTrue, proba mat.Vector) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	if proba.Len() != n {
		return 0, errors.NewShapeError("LogLoss", n, proba.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("LogLoss",
				fmt.Sprintf("yTrue must contain only 0 or 1, got %v at index %d", y, i))
		}
		p := proba.AtVec(i)
		if math.IsNaN(p) {
			return 0, errors.NewNumericalInstabilityError("LogLoss", []float64{p}, -1)
		}
		p = errors.ClipValue(p, probClip, 1-probClip)
		sum += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	return sum / float64(n), nil
}
