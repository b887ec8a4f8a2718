package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/YuminosukeSato/loangate/approval"
	"github.com/YuminosukeSato/loangate/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loangate.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p := cfg.Pipeline()
	if p.TrainFraction != 0.8 || p.LearningRate != 0.01 || p.Epochs != 1000 || p.Seed != -1 {
		t.Errorf("defaults = %+v", p)
	}
	if p.ScalerFit != approval.ScalerFitFull || cfg.Store.Driver != DriverFile {
		t.Errorf("defaults = %+v %+v", p, cfg.Store)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
train_fraction: 0.75
learning_rate: 0.05
epochs: 250
seed: 42
scaler_fit: train
zero_variance: fail
max_duration: 90s
log_level: debug
store:
  driver: redis
  addr: localhost:6379
  key: loans:model
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p := cfg.Pipeline()
	if p.TrainFraction != 0.75 || p.LearningRate != 0.05 || p.Epochs != 250 || p.Seed != 42 {
		t.Errorf("pipeline = %+v", p)
	}
	if p.ScalerFit != approval.ScalerFitTrain || p.ZeroVariance != "fail" {
		t.Errorf("pipeline = %+v", p)
	}
	if p.MaxDuration != 90*time.Second {
		t.Errorf("MaxDuration = %v, want 90s", p.MaxDuration)
	}
	if cfg.Store.Driver != DriverRedis || cfg.Store.Addr != "localhost:6379" || cfg.Store.Key != "loans:model" {
		t.Errorf("store = %+v", cfg.Store)
	}
	// ファイルで指定されていない値はデフォルトのまま
	if time.Duration(cfg.Store.Timeout) != 5*time.Second {
		t.Errorf("store timeout = %v, want default 5s", time.Duration(cfg.Store.Timeout))
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "train fraction", body: "train_fraction: 1.5"},
		{name: "learning rate", body: "learning_rate: 0"},
		{name: "epochs", body: "epochs: -1"},
		{name: "scaler fit", body: "scaler_fit: test"},
		{name: "zero variance", body: "zero_variance: drop"},
		{name: "duration", body: "max_duration: soon"},
		{name: "log level", body: "log_level: loud"},
		{name: "driver", body: "store:\n  driver: s3"},
		{name: "postgres without dsn", body: "store:\n  driver: postgres"},
		{name: "malformed yaml", body: "epochs: [1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPostgresDSN, "postgres://loangate@localhost/loangate?sslmode=disable")
	path := writeConfig(t, "store:\n  driver: postgres\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.DSN != "postgres://loangate@localhost/loangate?sslmode=disable" {
		t.Errorf("DSN = %q", cfg.Store.DSN)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Epochs = 321
	cfg.MaxDuration = Duration(2 * time.Minute)

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Epochs != 321 || loaded.MaxDuration != cfg.MaxDuration {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestValidationErrorType(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "ftp"
	var vErr *errors.ValidationError
	if err := cfg.Validate(); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.ParamName != "store.driver" {
		t.Errorf("ParamName = %q", vErr.ParamName)
	}
}
