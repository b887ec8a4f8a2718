package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/YuminosukeSato/loangate/config"
	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/pkg/errors"
)

func testSnapshot() *model.Snapshot {
	s := model.NewSnapshot([]float64{0.5, -0.25}, 0.125, []float64{10, 20}, []float64{2, 4})
	s.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.FeatureNames = []string{"cibil_score", "income_amount"}
	s.HyperParams = model.HyperParams{LearningRate: 0.01, Epochs: 200}
	s.Split = model.SplitConfig{Training: 0.8, Testing: 0.2, Seed: 42}
	s.Metrics = &model.EvaluationRecord{
		Accuracy:        0.9,
		Precision:       0.85,
		Recall:          0.95,
		F1Score:         0.897,
		ConfusionMatrix: [2][2]int{{8, 2}, {1, 9}},
		Support:         20,
	}
	return s
}

func assertSameSnapshot(t *testing.T, got, want *model.Snapshot) {
	t.Helper()
	if got.ID != want.ID || got.Bias != want.Bias || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("snapshot header = %s/%v/%v, want %s/%v/%v", got.ID, got.Bias, got.CreatedAt, want.ID, want.Bias, want.CreatedAt)
	}
	for i := range want.Weights {
		if got.Weights[i] != want.Weights[i] || got.Mean[i] != want.Mean[i] || got.Std[i] != want.Std[i] {
			t.Errorf("parameter %d differs", i)
		}
	}
	if got.HyperParams != want.HyperParams || got.Split != want.Split {
		t.Errorf("config = %+v %+v, want %+v %+v", got.HyperParams, got.Split, want.HyperParams, want.Split)
	}
	if (got.Metrics == nil) != (want.Metrics == nil) || (got.Metrics != nil && *got.Metrics != *want.Metrics) {
		t.Errorf("metrics = %+v, want %+v", got.Metrics, want.Metrics)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "model.json"))

	if _, err := fs.Load(ctx); !errors.Is(err, errors.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	want := testSnapshot()
	if err := fs.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := fs.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSameSnapshot(t, got, want)

	bad := testSnapshot()
	bad.Std[0] = 0
	if err := fs.Save(ctx, bad); err == nil {
		t.Error("expected validation error for zero std")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := fs.Save(cancelled, want); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Error(err)
	}
}

func TestOpenFileDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	st, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverFile, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	fs, ok := st.(*FileStore)
	if !ok || fs.Path() != path {
		t.Errorf("Open returned %T", st)
	}

	if _, err := Open(context.Background(), config.StoreConfig{Driver: "s3"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
