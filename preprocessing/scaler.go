package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/core/parallel"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// degenerateRelTol: 標準偏差が |平均| * degenerateRelTol 以下の列はゼロ分散とみなす
// 値の桁に対する相対比較なので、桁の小さい列（1e-10 程度）でも分散があればスケーリングされる
const degenerateRelTol = 1e-12

func isDegenerate(mean, sd float64) bool {
	return sd == 0 || sd <= degenerateRelTol*math.Abs(mean)
}

// ZeroVariancePolicy はゼロ分散列の扱いを決める
type ZeroVariancePolicy string

const (
	// ZeroVarianceUnit は標準偏差を1として扱い（スケーリングなし）、警告を出す
	ZeroVarianceUnit ZeroVariancePolicy = "unit"
	// ZeroVarianceFail は Fit をエラーで失敗させる
	ZeroVarianceFail ZeroVariancePolicy = "fail"
)

// ParseZeroVariancePolicy は設定文字列をポリシーに変換する
func ParseZeroVariancePolicy(s string) (ZeroVariancePolicy, error) {
	switch ZeroVariancePolicy(s) {
	case ZeroVarianceUnit, "":
		return ZeroVarianceUnit, nil
	case ZeroVarianceFail:
		return ZeroVarianceFail, nil
	default:
		return "", errors.NewValidationError("zero_variance", "must be 'unit' or 'fail'", s)
	}
}

// StandardScaler は特徴量を平均0、標準偏差1に変換する
// 統計量は Fit 時に固定され、Transform は決して再計算しない
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の母標準偏差（ゼロ分散列は1）
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// DegenerateColumns は Fit 時にゼロ分散と判定された列
	DegenerateColumns []int

	policy       ZeroVariancePolicy
	featureNames []string
}

// ScalerOption はStandardScalerの関数オプション
type ScalerOption func(*StandardScaler)

// WithZeroVariancePolicy はゼロ分散列の扱いを設定する
func WithZeroVariancePolicy(p ZeroVariancePolicy) ScalerOption {
	return func(s *StandardScaler) {
		s.policy = p
	}
}

// WithFeatureNames は警告メッセージに使う列名を設定する
func WithFeatureNames(names []string) ScalerOption {
	return func(s *StandardScaler) {
		s.featureNames = names
	}
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(
//	    preprocessing.WithZeroVariancePolicy(preprocessing.ZeroVarianceFail),
//	)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(opts ...ScalerOption) *StandardScaler {
	s := &StandardScaler{policy: ZeroVarianceUnit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStandardScalerFromStats は永続化された統計量から学習済みのスケーラーを復元する
func NewStandardScalerFromStats(mean, std []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.NewModelError("NewStandardScalerFromStats", "empty statistics", errors.ErrEmptyData)
	}
	if len(std) != len(mean) {
		return nil, errors.NewShapeError("NewStandardScalerFromStats", len(mean), len(std), 1)
	}
	for j, sd := range std {
		if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
			return nil, errors.NewDegenerateColumnWarning(j, "")
		}
	}

	s := NewStandardScaler()
	s.Mean = append([]float64(nil), mean...)
	s.Scale = append([]float64(nil), std...)
	s.NFeatures = len(mean)
	s.SetFitted()
	return s, nil
}

// Fit は訓練データから統計情報（平均、母標準偏差）を計算する
//
// パラメータ:
//   - X: 訓練データ (n_samples × n_features の行列)
//
// 戻り値:
//   - error: 空データ、非有限値、または ZeroVarianceFail でゼロ分散列がある場合
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	var degenerate []int

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m, variance := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(variance)
		if err := errors.CheckScalar("StandardScaler.Fit", m+sd, -1); err != nil {
			return errors.NewValueError("StandardScaler.Fit", fmt.Sprintf("column %d contains non-finite values", j))
		}
		mean[j] = m

		if isDegenerate(m, sd) {
			warning := errors.NewDegenerateColumnWarning(j, s.featureName(j))
			if s.policy == ZeroVarianceFail {
				return errors.WithStack(warning)
			}
			errors.Warn(warning)
			degenerate = append(degenerate, j)
			sd = 1.0
		}
		scale[j] = sd
	}

	s.Mean = mean
	s.Scale = scale
	s.NFeatures = c
	s.DegenerateColumns = degenerate
	s.SetFitted()
	return nil
}

func (s *StandardScaler) featureName(j int) string {
	if j < len(s.featureNames) {
		return s.featureNames[j]
	}
	return ""
}

// Transform は学習済みの統計情報を使ってデータを標準化する
// v' = (v - mean[j]) / scale[j]
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewShapeError("StandardScaler.Transform", s.NFeatures, c, 1)
	}
	if r == 0 {
		return nil, errors.NewModelError("StandardScaler.Transform", "empty data", errors.ErrEmptyData)
	}

	result := mat.NewDense(r, c, nil)

	// 行ごとに独立なので行範囲で並列化する
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
			}
		}
	})

	return result, nil
}

// TransformVec は1サンプルを標準化する
func (s *StandardScaler) TransformVec(x []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "TransformVec")
	}
	if len(x) != s.NFeatures {
		return nil, errors.NewShapeError("StandardScaler.TransformVec", s.NFeatures, len(x), 1)
	}

	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(zero_variance=%s)", s.policy)
	}
	return fmt.Sprintf("StandardScaler(zero_variance=%s, n_features=%d, degenerate=%v)",
		s.policy, s.NFeatures, s.DegenerateColumns)
}

var _ model.Transformer = (*StandardScaler)(nil)
