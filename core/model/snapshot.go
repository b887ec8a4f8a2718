package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/loangate/pkg/errors"
)

// SnapshotVersion はスナップショット形式のバージョン（互換性チェック用）
const SnapshotVersion = "1"

// HyperParams は学習時のハイパーパラメータ
type HyperParams struct {
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
}

// SplitConfig は訓練/テスト分割の設定
type SplitConfig struct {
	Training float64 `json:"training"`
	Testing  float64 `json:"testing"`
	Seed     int64   `json:"seed"`
}

// EvaluationRecord はテスト分割上の評価指標
// ConfusionMatrix は [[TN, FP], [FN, TP]]（行=真のクラス, 列=予測クラス）
type EvaluationRecord struct {
	Accuracy        float64   `json:"accuracy"`
	Precision       float64   `json:"precision"`
	Recall          float64   `json:"recall"`
	F1Score         float64   `json:"f1_score"`
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
	Support         int       `json:"support"`
}

// Snapshot は学習済みモデルを再学習なしで復元するための永続化状態
// 重み・切片・正規化統計量だけで Predictor を再構築できる
type Snapshot struct {
	ID           string            `json:"id"`
	Version      string            `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
	FeatureNames []string          `json:"feature_names,omitempty"`
	Weights      []float64         `json:"weights"`
	Bias         float64           `json:"bias"`
	Mean         []float64         `json:"x_mean"`
	Std          []float64         `json:"x_std"`
	HyperParams  HyperParams       `json:"hyper_params"`
	Split        SplitConfig       `json:"test_train_split"`
	Metrics      *EvaluationRecord `json:"model_metrics,omitempty"`
}

// NewSnapshot は新しいIDと作成時刻を持つスナップショットを作成する
func NewSnapshot(weights []float64, bias float64, mean, std []float64) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Weights:   append([]float64(nil), weights...),
		Bias:      bias,
		Mean:      append([]float64(nil), mean...),
		Std:       append([]float64(nil), std...),
	}
}

// Validate はスナップショットの妥当性を検証する
func (s *Snapshot) Validate() error {
	if s == nil {
		return errors.NewValueError("Snapshot.Validate", "nil snapshot")
	}
	if s.Version != SnapshotVersion {
		return errors.NewValidationError("version", "unsupported snapshot version", s.Version)
	}
	n := len(s.Weights)
	if n == 0 {
		return errors.NewValueError("Snapshot.Validate", "snapshot has no weights")
	}
	if len(s.Mean) != n {
		return errors.NewShapeError("Snapshot.Validate", n, len(s.Mean), 1)
	}
	if len(s.Std) != n {
		return errors.NewShapeError("Snapshot.Validate", n, len(s.Std), 1)
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != n {
		return errors.NewShapeError("Snapshot.Validate", n, len(s.FeatureNames), 1)
	}
	for _, values := range [][]float64{s.Weights, s.Mean, s.Std} {
		if err := errors.CheckNumericalStability("snapshot_validate", values, -1); err != nil {
			return err
		}
	}
	if err := errors.CheckScalar("snapshot_validate", s.Bias, -1); err != nil {
		return err
	}
	for j, sd := range s.Std {
		if sd == 0 {
			return errors.NewDegenerateColumnWarning(j, s.featureName(j))
		}
	}
	return nil
}

func (s *Snapshot) featureName(j int) string {
	if j < len(s.FeatureNames) {
		return s.FeatureNames[j]
	}
	return ""
}

// Clone はスナップショットのディープコピーを作成する
func (s *Snapshot) Clone() *Snapshot {
	clone := *s
	clone.FeatureNames = append([]string(nil), s.FeatureNames...)
	clone.Weights = append([]float64(nil), s.Weights...)
	clone.Mean = append([]float64(nil), s.Mean...)
	clone.Std = append([]float64(nil), s.Std...)
	if s.Metrics != nil {
		m := *s.Metrics
		clone.Metrics = &m
	}
	return &clone
}

// ToJSON はスナップショットをJSON形式にシリアライズする
func (s *Snapshot) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode snapshot")
	}
	return data, nil
}

// SnapshotFromJSON はJSON形式からスナップショットを復元し、検証する
func SnapshotFromJSON(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
