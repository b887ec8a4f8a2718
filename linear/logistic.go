package linear

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/core/parallel"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultLearningRate = 0.01
	defaultEpochs       = 1000

	// debugLogEvery エポックごとに損失をDebugログに出す
	debugLogEvery = 100
)

// LogisticRegression はバッチ勾配降下で学習する二値ロジスティック回帰
// 正則化・早期終了はなく、常に指定エポック数だけ更新する
type LogisticRegression struct {
	model.BaseEstimator

	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数

	learningRate float64
	epochs       int
	recordLoss   bool
	lossHistory  []float64
	logger       log.Logger
}

// NewLogisticRegression は新しいロジスティック回帰モデルを作成する
//
// 使用例:
//
//	lr := linear.NewLogisticRegression(
//	    linear.WithLearningRate(0.01),
//	    linear.WithEpochs(500),
//	)
//	err := lr.Fit(XTrain, yTrain)
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	m := &LogisticRegression{
		learningRate: defaultLearningRate,
		epochs:       defaultEpochs,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Named("linear")
	}
	m.logger = m.logger.With(log.ModelNameKey, "LogisticRegression")
	return m
}

// NewLogisticRegressionFromParams は保存済みのパラメータから学習済みモデルを復元する
func NewLogisticRegressionFromParams(weights []float64, bias float64) (*LogisticRegression, error) {
	if len(weights) == 0 {
		return nil, errors.NewModelError("NewLogisticRegressionFromParams", "empty weights", errors.ErrEmptyData)
	}
	if err := errors.CheckNumericalStability("NewLogisticRegressionFromParams", weights, -1); err != nil {
		return nil, err
	}
	if err := errors.CheckScalar("NewLogisticRegressionFromParams", bias, -1); err != nil {
		return nil, err
	}

	m := NewLogisticRegression()
	m.Weights = mat.NewVecDense(len(weights), append([]float64(nil), weights...))
	m.Intercept = bias
	m.NFeatures = len(weights)
	m.SetFitted()
	return m, nil
}

// Fit はモデルを訓練データで学習させる
func (m *LogisticRegression) Fit(X mat.Matrix, y mat.Vector) error {
	return m.FitContext(context.Background(), X, y)
}

// FitContext は ctx のキャンセルをエポック間で確認しながら学習する
// キャンセルされた場合モデルは未学習のまま残る
//
// 更新式（n はサンプル数）:
//
//	p  = σ(Xw + b)
//	w -= lr * Xᵀ(p - y) / n
//	b -= lr * mean(p - y)
func (m *LogisticRegression) FitContext(ctx context.Context, X mat.Matrix, y mat.Vector) (err error) {
	defer errors.Recover(&err, "LogisticRegression.Fit")

	if err := m.validateParams(); err != nil {
		return err
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != r {
		return errors.NewShapeError("LogisticRegression.Fit", r, y.Len(), 0)
	}
	for i := 0; i < r; i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit",
				fmt.Sprintf("labels must be 0 or 1, got %v at index %d", v, i))
		}
	}

	m.Reset()
	m.lossHistory = nil

	logger := m.logger.With(
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
	)
	logger.Info("Training started",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.LearningRateKey, m.learningRate,
		log.EpochsKey, m.epochs,
	)
	start := time.Now()

	n := float64(r)
	w := mat.NewVecDense(c, nil)
	b := 0.0

	z := mat.NewVecDense(r, nil)
	e := mat.NewVecDense(r, nil)
	grad := mat.NewVecDense(c, nil)

	debug := logger.Enabled(ctx, log.LevelDebug)
	var history []float64

	for epoch := 0; epoch < m.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("Training interrupted", log.EpochKey, epoch)
			return errors.Wrapf(err, "LogisticRegression.Fit: interrupted at epoch %d", epoch)
		}

		z.MulVec(X, w)
		var loss, sumE float64
		for i := 0; i < r; i++ {
			zi := z.AtVec(i) + b
			yi := y.AtVec(i)
			if m.recordLoss || debug {
				loss += logisticLoss(zi, yi)
			}
			ei := Sigmoid(zi) - yi
			e.SetVec(i, ei)
			sumE += ei
		}
		loss /= n

		if m.recordLoss {
			history = append(history, loss)
		}
		if debug && epoch%debugLogEvery == 0 {
			logger.Debug("Epoch", log.EpochKey, epoch, log.LossKey, loss)
		}

		grad.MulVec(X.T(), e)
		w.AddScaledVec(w, -m.learningRate/n, grad)
		b -= m.learningRate * sumE / n

		if err := errors.CheckNumericalStability("LogisticRegression.Fit", w.RawVector().Data, epoch); err != nil {
			return err
		}
		if err := errors.CheckScalar("LogisticRegression.Fit", b, epoch); err != nil {
			return err
		}
	}

	if m.recordLoss {
		history = append(history, meanLoss(X, y, w, b))
	}

	m.Weights = w
	m.Intercept = b
	m.NFeatures = c
	m.lossHistory = history
	m.SetFitted()

	logger.Info("Training completed",
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.BiasKey, b,
	)
	return nil
}

func (m *LogisticRegression) validateParams() error {
	if !(m.learningRate > 0) || math.IsInf(m.learningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be a positive finite number", m.learningRate)
	}
	if m.epochs < 0 {
		return errors.NewValidationError("epochs", "must be non-negative", m.epochs)
	}
	return nil
}

func meanLoss(X mat.Matrix, y mat.Vector, w *mat.VecDense, b float64) float64 {
	r, _ := X.Dims()
	z := mat.NewVecDense(r, nil)
	z.MulVec(X, w)
	var loss float64
	for i := 0; i < r; i++ {
		loss += logisticLoss(z.AtVec(i)+b, y.AtVec(i))
	}
	return loss / float64(r)
}

// DecisionFunction は z = Xw + b を返す（入力は正規化済みであること）
func (m *LogisticRegression) DecisionFunction(X mat.Matrix) (z *mat.VecDense, err error) {
	defer errors.Recover(&err, "LogisticRegression.DecisionFunction")

	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "DecisionFunction")
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewShapeError("LogisticRegression.DecisionFunction", m.NFeatures, c, 1)
	}

	z = mat.NewVecDense(r, nil)
	w := m.Weights.RawVector().Data

	// 各行の計算は独立
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			z.SetVec(i, dot(row, w)+m.Intercept)
		}
	})
	return z, nil
}

// DecisionValue は1サンプルの z を返す
func (m *LogisticRegression) DecisionValue(x []float64) (float64, error) {
	if !m.IsFitted() {
		return 0, errors.NewNotFittedError("LogisticRegression", "DecisionValue")
	}
	if len(x) != m.NFeatures {
		return 0, errors.NewShapeError("LogisticRegression.DecisionValue", m.NFeatures, len(x), 1)
	}
	return dot(x, m.Weights.RawVector().Data) + m.Intercept, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// PredictProba は陽性クラスの確率 σ(z) を返す
func (m *LogisticRegression) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	z, err := m.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < z.Len(); i++ {
		z.SetVec(i, Sigmoid(z.AtVec(i)))
	}
	return z, nil
}

// Predict は 0/1 ラベルを返す（p >= 0.5 で 1）
func (m *LogisticRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	p, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < p.Len(); i++ {
		p.SetVec(i, float64(Classify(p.AtVec(i))))
	}
	return p, nil
}

// Coefficients は学習された重みのコピーを返す
func (m *LogisticRegression) Coefficients() []float64 {
	if m.Weights == nil {
		return nil
	}
	return append([]float64(nil), m.Weights.RawVector().Data...)
}

// Bias は学習された切片を返す
func (m *LogisticRegression) Bias() float64 {
	return m.Intercept
}

// LossHistory は記録した平均損失を返す
// 先頭は更新前（w=0, b=0）、以降は各エポック後の値で、長さは epochs+1
func (m *LogisticRegression) LossHistory() []float64 {
	return append([]float64(nil), m.lossHistory...)
}

// LearningRate は学習率を返す
func (m *LogisticRegression) LearningRate() float64 { return m.learningRate }

// Epochs はエポック数を返す
func (m *LogisticRegression) Epochs() int { return m.epochs }

// String はモデルの文字列表現を返す
func (m *LogisticRegression) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("LogisticRegression(learning_rate=%g, epochs=%d)", m.learningRate, m.epochs)
	}
	return fmt.Sprintf("LogisticRegression(learning_rate=%g, epochs=%d, n_features=%d, bias=%.6f)",
		m.learningRate, m.epochs, m.NFeatures, m.Intercept)
}

var (
	_ model.Classifier  = (*LogisticRegression)(nil)
	_ model.LinearModel = (*LogisticRegression)(nil)
)
