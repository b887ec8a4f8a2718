package approval

import (
	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/core/parallel"
	"github.com/YuminosukeSato/loangate/linear"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// Predictor は正規化統計量と学習済みモデルの組
// 生の特徴量を受け取り、保存された統計量で正規化してから判定する
// 構築後は読み取り専用で、並行に使ってよい
type Predictor struct {
	scaler *preprocessing.StandardScaler
	model  *linear.LogisticRegression
}

// NewPredictor は学習済みのスケーラーとモデルから Predictor を作る
func NewPredictor(scaler *preprocessing.StandardScaler, m *linear.LogisticRegression) (*Predictor, error) {
	if scaler == nil || !scaler.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "NewPredictor")
	}
	if m == nil || !m.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "NewPredictor")
	}
	if scaler.NFeatures != m.NFeatures {
		return nil, errors.NewShapeError("NewPredictor", m.NFeatures, scaler.NFeatures, 1)
	}
	return &Predictor{scaler: scaler, model: m}, nil
}

// NewPredictorFromSnapshot は永続化された状態から再学習なしで Predictor を復元する
func NewPredictorFromSnapshot(s *model.Snapshot) (*Predictor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	scaler, err := preprocessing.NewStandardScalerFromStats(s.Mean, s.Std)
	if err != nil {
		return nil, err
	}
	m, err := linear.NewLogisticRegressionFromParams(s.Weights, s.Bias)
	if err != nil {
		return nil, err
	}
	return NewPredictor(scaler, m)
}

// NumFeatures は入力ベクトルの長さ
func (p *Predictor) NumFeatures() int {
	return p.model.NFeatures
}

// Model は内部のモデルを返す
func (p *Predictor) Model() *linear.LogisticRegression { return p.model }

// Scaler は内部のスケーラーを返す
func (p *Predictor) Scaler() *preprocessing.StandardScaler { return p.scaler }

// ProbaOne は生の特徴量ベクトル1件の承認確率を返す
func (p *Predictor) ProbaOne(x []float64) (float64, error) {
	if len(x) != p.NumFeatures() {
		return 0, errors.NewShapeError("Predictor.ProbaOne", p.NumFeatures(), len(x), 1)
	}
	xs, err := p.scaler.TransformVec(x)
	if err != nil {
		return 0, err
	}
	z, err := p.model.DecisionValue(xs)
	if err != nil {
		return 0, err
	}
	return linear.Sigmoid(z), nil
}

// PredictOne は生の特徴量ベクトル1件を 0/1 に判定する
func (p *Predictor) PredictOne(x []float64) (int, error) {
	proba, err := p.ProbaOne(x)
	if err != nil {
		return 0, err
	}
	return linear.Classify(proba), nil
}

// PredictRecord はレコードを符号化してから判定する
func (p *Predictor) PredictRecord(r preprocessing.Record) (int, error) {
	x, err := preprocessing.EncodeFeatures(r)
	if err != nil {
		return 0, err
	}
	return p.PredictOne(x)
}

// PredictProba は生の特徴量行列の各行の承認確率を返す
// 入力行列の At が panic してもエラーとして返す
func (p *Predictor) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	var proba *mat.VecDense
	err := errors.SafeExecute("Predictor.PredictProba", func() error {
		_, c := X.Dims()
		if c != p.NumFeatures() {
			return errors.NewShapeError("Predictor.PredictProba", p.NumFeatures(), c, 1)
		}
		xs, err := p.scaler.Transform(X)
		if err != nil {
			return err
		}
		proba, err = p.model.PredictProba(xs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return proba, nil
}

// Predict は生の特徴量行列の各行を 0/1 に判定する
func (p *Predictor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	proba, err := p.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(proba.Len(), nil)
	parallel.ParallelizeWithThreshold(proba.Len(), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out.SetVec(i, float64(linear.Classify(proba.AtVec(i))))
		}
	})
	return out, nil
}
