package approval

import (
	"context"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/linear"
	"github.com/YuminosukeSato/loangate/metrics"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"github.com/YuminosukeSato/loangate/pkg/log"
	"github.com/YuminosukeSato/loangate/pkg/telemetry"
	"github.com/YuminosukeSato/loangate/preprocessing"
)

// SnapshotStore は学習済み状態の保存先
type SnapshotStore interface {
	Save(ctx context.Context, s *model.Snapshot) error
	Load(ctx context.Context) (*model.Snapshot, error)
}

// current は同時に公開される Predictor とその由来のスナップショット
type current struct {
	predictor *Predictor
	snapshot  *model.Snapshot
}

// Service は現在のモデルを保持し、予測を提供する
// 学習完了後にのみ新しいモデルを公開するため、読み手が学習途中の状態を見ることはない
type Service struct {
	pipeline *Pipeline
	store    SnapshotStore
	recorder *telemetry.Recorder
	logger   log.Logger

	model model.Holder[current]
}

// NewService は Service を作る。store と recorder は nil でもよい
func NewService(pipeline *Pipeline, store SnapshotStore, recorder *telemetry.Recorder, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Named("approval")
	}
	return &Service{
		pipeline: pipeline,
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// Train は学習を実行し、成功した場合だけ保存して公開する
func (s *Service) Train(ctx context.Context, records []preprocessing.Record) (*Result, error) {
	if s.pipeline == nil {
		return nil, errors.NewValueError("Service.Train", "service has no pipeline")
	}
	result, err := s.pipeline.Train(ctx, records)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Save(ctx, result.Snapshot); err != nil {
			return nil, errors.Wrap(err, "failed to save snapshot")
		}
	}

	s.model.Publish(&current{predictor: result.Predictor, snapshot: result.Snapshot})
	s.recorder.ObserveTraining(result.Duration)
	s.recorder.RecordReport(result.Report)

	s.logger.Info("Model published",
		log.ModelIDKey, result.Snapshot.ID,
		log.DurationMsKey, result.Duration.Milliseconds(),
	)
	return result, nil
}

// LoadLatest は保存済みの最新スナップショットを読み込んで公開する
func (s *Service) LoadLatest(ctx context.Context) (*model.Snapshot, error) {
	if s.store == nil {
		return nil, errors.NewValueError("Service.LoadLatest", "service has no snapshot store")
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Publish(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Publish はスナップショットから Predictor を復元して公開する
func (s *Service) Publish(snap *model.Snapshot) error {
	predictor, err := NewPredictorFromSnapshot(snap)
	if err != nil {
		return err
	}
	s.model.Publish(&current{predictor: predictor, snapshot: snap})
	if snap.Metrics != nil {
		s.recorder.RecordReport(metrics.ReportFromRecord(snap.Metrics))
	} else {
		// 前のモデルの評価値を残さない
		s.recorder.ClearReport()
	}

	s.logger.Info("Model published", log.ModelIDKey, snap.ID)
	return nil
}

// Ready はモデルが公開済みかを返す
func (s *Service) Ready() bool {
	return s.model.Ready()
}

// Snapshot は公開中のスナップショットを返す。未公開なら nil
func (s *Service) Snapshot() *model.Snapshot {
	c := s.model.Load()
	if c == nil {
		return nil
	}
	return c.snapshot
}

// Predictor は公開中の Predictor を返す
func (s *Service) Predictor() (*Predictor, error) {
	c := s.model.Load()
	if c == nil {
		return nil, errors.NewNotFittedError("Service", "Predict")
	}
	return c.predictor, nil
}

// Decision は1件の判定結果
type Decision struct {
	Label       int
	Probability float64
}

// Approved は承認判定かどうかを返す
func (d Decision) Approved() bool { return d.Label == 1 }

// Predict はレコード1件を判定する
func (s *Service) Predict(r preprocessing.Record) (Decision, error) {
	predictor, err := s.Predictor()
	if err != nil {
		return Decision{}, err
	}
	x, err := preprocessing.EncodeFeatures(r)
	if err != nil {
		return Decision{}, err
	}
	proba, err := predictor.ProbaOne(x)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Label: linear.Classify(proba), Probability: proba}
	s.recorder.CountPrediction(d.Label)
	return d, nil
}
