// Package approval ties the encoder, normalizer, splitter, trainer and
// evaluator into one training run and serves predictions from its result.
package approval

import (
	"context"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/linear"
	"github.com/YuminosukeSato/loangate/metrics"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/pkg/log"
	"github.com/YuminosukeSato/loangate/preprocessing"
	"gonum.org/v1/gonum/mat"
)

// ScalerFit は正規化統計量を計算する行の範囲
type ScalerFit string

const (
	// ScalerFitFull は分割前の全行で統計量を計算する
	ScalerFitFull ScalerFit = "full"
	// ScalerFitTrain は訓練分割の行だけで統計量を計算する
	ScalerFitTrain ScalerFit = "train"
)

// Config は1回の学習の設定
type Config struct {
	TrainFraction float64
	LearningRate  float64
	Epochs        int
	// Seed が負の場合はランダムなシードを選び、スナップショットに記録する
	Seed         int64
	ScalerFit    ScalerFit
	ZeroVariance preprocessing.ZeroVariancePolicy
	// MaxDuration が正の場合、学習ループの実行時間の上限になる
	MaxDuration time.Duration
	RecordLoss  bool
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		TrainFraction: 0.8,
		LearningRate:  0.01,
		Epochs:        1000,
		Seed:          -1,
		ScalerFit:     ScalerFitFull,
		ZeroVariance:  preprocessing.ZeroVarianceUnit,
	}
}

// Validate は設定値を検証する
func (c Config) Validate() error {
	if !(c.TrainFraction > 0 && c.TrainFraction <= 1) {
		return errors.NewValidationError("train_fraction", "must be in (0, 1]", c.TrainFraction)
	}
	if !(c.LearningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	}
	if c.Epochs < 0 {
		return errors.NewValidationError("epochs", "must be non-negative", c.Epochs)
	}
	switch c.ScalerFit {
	case ScalerFitFull, ScalerFitTrain:
	default:
		return errors.NewValidationError("scaler_fit", "must be 'full' or 'train'", c.ScalerFit)
	}
	if _, err := preprocessing.ParseZeroVariancePolicy(string(c.ZeroVariance)); err != nil {
		return err
	}
	if c.MaxDuration < 0 {
		return errors.NewValidationError("max_duration", "must be non-negative", c.MaxDuration)
	}
	return nil
}

// Result は学習の成果物
type Result struct {
	Predictor *Predictor
	Snapshot  *model.Snapshot
	Split     *preprocessing.Split
	// Report はテスト分割が空の場合 nil
	Report      *metrics.ClassificationReport
	LossHistory []float64
	Duration    time.Duration
}

// Pipeline は Encoder → Normalizer → Splitter → Trainer → Evaluator を順に実行する
type Pipeline struct {
	cfg    Config
	logger log.Logger
}

// NewPipeline は設定を検証して Pipeline を作る。logger が nil の場合はデフォルトを使う
func NewPipeline(cfg Config, logger log.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Named("approval")
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Config は Pipeline の設定を返す
func (p *Pipeline) Config() Config { return p.cfg }

// Train はレコードを符号化して学習する
func (p *Pipeline) Train(ctx context.Context, records []preprocessing.Record) (*Result, error) {
	X, y, err := preprocessing.EncodeAll(records)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Encoded dataset",
		log.OperationKey, log.OperationEncode,
		log.SamplesKey, len(records),
		log.FeaturesKey, preprocessing.NumFeatures,
	)
	return p.TrainMatrix(ctx, X, y)
}

// TrainMatrix は符号化済みの特徴量行列とラベルで学習する
//
// 使用例:
//
//	pipe, _ := approval.NewPipeline(approval.DefaultConfig(), nil)
//	result, err := pipe.TrainMatrix(ctx, X, y)
//	label, err := result.Predictor.PredictOne(x)
func (p *Pipeline) TrainMatrix(ctx context.Context, X *mat.Dense, y *mat.VecDense) (*Result, error) {
	start := time.Now()
	n, c := X.Dims()

	seed := p.cfg.Seed
	if seed < 0 {
		seed = rand.Int63()
	}
	trainIdx, testIdx, err := preprocessing.SplitIndices(n, p.cfg.TrainFraction, preprocessing.NewRand(seed))
	if err != nil {
		return nil, err
	}

	var names []string
	if c == preprocessing.NumFeatures {
		names = preprocessing.FeatureNames
	}

	// 統計量は一度だけ計算して固定する。以降の変換は常にこの統計量を使う
	scaler := preprocessing.NewStandardScaler(
		preprocessing.WithZeroVariancePolicy(p.cfg.ZeroVariance),
		preprocessing.WithFeatureNames(names),
	)
	var fitRows mat.Matrix = X
	if p.cfg.ScalerFit == ScalerFitTrain {
		fitRows = preprocessing.SelectRows(X, trainIdx)
	}
	if err := scaler.Fit(fitRows); err != nil {
		return nil, err
	}
	for _, j := range scaler.DegenerateColumns {
		p.logger.Warn("Zero-variance feature left unscaled", log.ColumnKey, j)
	}

	XScaled, err := scaler.Transform(X)
	if err != nil {
		return nil, err
	}

	split, err := preprocessing.NewSplit(XScaled, y, trainIdx, testIdx)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Split dataset",
		log.OperationKey, log.OperationSplit,
		log.TrainSamplesKey, split.TrainSize(),
		log.TestSamplesKey, split.TestSize(),
		log.RandomSeedKey, seed,
	)

	if p.cfg.MaxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.MaxDuration)
		defer cancel()
	}

	clf := linear.NewLogisticRegression(
		linear.WithLearningRate(p.cfg.LearningRate),
		linear.WithEpochs(p.cfg.Epochs),
		linear.WithLossHistory(p.cfg.RecordLoss),
		linear.WithLogger(p.logger),
	)
	if err := clf.FitContext(ctx, split.XTrain, split.YTrain); err != nil {
		return nil, err
	}

	predictor, err := NewPredictor(scaler, clf)
	if err != nil {
		return nil, err
	}

	report, err := p.evaluate(clf, split)
	if err != nil {
		return nil, err
	}

	snap := model.NewSnapshot(clf.Coefficients(), clf.Bias(), scaler.Mean, scaler.Scale)
	snap.FeatureNames = append([]string(nil), names...)
	snap.HyperParams = model.HyperParams{
		LearningRate: p.cfg.LearningRate,
		Epochs:       p.cfg.Epochs,
	}
	// 実際の分割サイズから比率を求める（1-0.8 の丸め誤差を保存しない）
	total := float64(split.TrainSize() + split.TestSize())
	snap.Split = model.SplitConfig{
		Training: float64(split.TrainSize()) / total,
		Testing:  float64(split.TestSize()) / total,
		Seed:     seed,
	}
	snap.Metrics = report.ToRecord()

	return &Result{
		Predictor:   predictor,
		Snapshot:    snap,
		Split:       split,
		Report:      report,
		LossHistory: clf.LossHistory(),
		Duration:    time.Since(start),
	}, nil
}

// evaluate はテスト分割だけを評価する。テスト分割が空なら nil を返す
func (p *Pipeline) evaluate(clf *linear.LogisticRegression, split *preprocessing.Split) (*metrics.ClassificationReport, error) {
	if split.TestSize() == 0 {
		p.logger.Warn("Test split is empty; skipping evaluation",
			log.OperationKey, log.OperationEvaluate,
		)
		return nil, nil
	}

	proba, err := clf.PredictProba(split.XTest)
	if err != nil {
		return nil, err
	}
	yPred := mat.NewVecDense(proba.Len(), nil)
	for i := 0; i < proba.Len(); i++ {
		yPred.SetVec(i, float64(linear.Classify(proba.AtVec(i))))
	}

	report, err := metrics.Evaluate(split.YTest, yPred)
	if err != nil {
		return nil, err
	}
	loss, err := metrics.LogLoss(split.YTest, proba)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Evaluated on test split",
		log.OperationKey, log.OperationEvaluate,
		log.PhaseKey, log.PhaseTesting,
		log.SamplesKey, report.Support,
		log.AccuracyKey, report.Accuracy,
		log.PrecisionKey, report.Precision,
		log.RecallKey, report.Recall,
		log.F1ScoreKey, report.F1,
		log.LossKey, loss,
	)
	return report, nil
}
