package preprocessing

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/loangate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Split は訓練/テストへの非重複な分割
// 作成後に変更してはならない
type Split struct {
	// TrainIdx, TestIdx は元の行番号（置換後の順序）
	TrainIdx []int
	TestIdx  []int

	XTrain *mat.Dense
	YTrain *mat.VecDense

	// テスト分割が空の場合は nil
	XTest *mat.Dense
	YTest *mat.VecDense
}

// NewRand は乱数源を作成する。seed が負の場合は非決定的なシードを使う
func NewRand(seed int64) *rand.Rand {
	if seed < 0 {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return rand.New(rand.NewSource(seed))
}

// SplitIndices は 0..n-1 の置換を作り、先頭 floor(trainFraction*n) 個を訓練、残りをテストとする
func SplitIndices(n int, trainFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, errors.NewValueError("SplitIndices", "no samples to split")
	}
	if !(trainFraction > 0 && trainFraction <= 1) {
		return nil, nil, errors.NewValidationError("train_fraction", "must be in (0, 1]", trainFraction)
	}
	if rng == nil {
		rng = NewRand(-1)
	}

	perm := rng.Perm(n)
	nTrain := int(math.Floor(trainFraction * float64(n)))
	if nTrain == 0 {
		return nil, nil, errors.NewValueError("SplitIndices", "training split is empty; increase train_fraction or add samples")
	}
	return perm[:nTrain], perm[nTrain:], nil
}

// TrainTestSplit は X, y を訓練/テストに分割する
//
// 使用例:
//
//	split, err := preprocessing.TrainTestSplit(X, y, 0.8, preprocessing.NewRand(42))
func TrainTestSplit(X mat.Matrix, y mat.Vector, trainFraction float64, rng *rand.Rand) (*Split, error) {
	n, _ := X.Dims()
	if y.Len() != n {
		return nil, errors.NewShapeError("TrainTestSplit", n, y.Len(), 0)
	}

	trainIdx, testIdx, err := SplitIndices(n, trainFraction, rng)
	if err != nil {
		return nil, err
	}
	return NewSplit(X, y, trainIdx, testIdx)
}

// NewSplit は与えられた行番号で X, y を分割する
// trainIdx と testIdx は重複せず、範囲内でなければならない
func NewSplit(X mat.Matrix, y mat.Vector, trainIdx, testIdx []int) (*Split, error) {
	n, _ := X.Dims()
	if y.Len() != n {
		return nil, errors.NewShapeError("NewSplit", n, y.Len(), 0)
	}
	if len(trainIdx) == 0 {
		return nil, errors.NewValueError("NewSplit", "training split is empty")
	}

	seen := make([]bool, n)
	for _, idx := range [][]int{trainIdx, testIdx} {
		for _, i := range idx {
			if i < 0 || i >= n {
				return nil, errors.NewValueError("NewSplit", fmt.Sprintf("row index %d out of range [0, %d)", i, n))
			}
			if seen[i] {
				return nil, errors.NewValueError("NewSplit", fmt.Sprintf("row index %d appears more than once", i))
			}
			seen[i] = true
		}
	}

	split := &Split{
		TrainIdx: append([]int(nil), trainIdx...),
		TestIdx:  append([]int(nil), testIdx...),
	}
	split.XTrain, split.YTrain = selectRows(X, y, trainIdx)
	if len(testIdx) > 0 {
		split.XTest, split.YTest = selectRows(X, y, testIdx)
	}
	return split, nil
}

// TrainSize は訓練サンプル数を返す
func (s *Split) TrainSize() int { return len(s.TrainIdx) }

// TestSize はテストサンプル数を返す
func (s *Split) TestSize() int { return len(s.TestIdx) }

// SelectRows は idx の順に X の行を取り出した新しい行列を返す
func SelectRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	row := make([]float64, c)
	for i, src := range idx {
		mat.Row(row, src, X)
		out.SetRow(i, row)
	}
	return out
}

func selectRows(X mat.Matrix, y mat.Vector, idx []int) (*mat.Dense, *mat.VecDense) {
	yOut := mat.NewVecDense(len(idx), nil)
	for i, src := range idx {
		yOut.SetVec(i, y.AtVec(src))
	}
	return SelectRows(X, idx), yOut
}
