package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/YuminosukeSato/loangate/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("debug message", "key", "value")
	testLogger.Info("info message", OperationKey, OperationFit, SamplesKey, 42)
	testLogger.Error("error message", fmt.Errorf("boom"), "error_code", "TEST_ERROR")

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty string")
	}
	if testLogger.ContainsMessage("debug message") {
		t.Error("Debug message should be filtered at info level")
	}
	if !testLogger.ContainsMessage("info message") {
		t.Error("Info message not found in output")
	}
	if !testLogger.ContainsField(SamplesKey, 42.0) {
		t.Error("Expected field data.samples=42 not found")
	}
	if !testLogger.ContainsField("error", "boom") {
		t.Error("Expected leading error to be captured under 'error'")
	}
}

func TestTestLoggerWith(t *testing.T) {
	base, _ := NewTestLogger(LevelDebug)
	child := base.With(ModelNameKey, "LogisticRegression")
	child.Info("Training started")

	entries, err := base.GetLogEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if entries[0][ModelNameKey] != "LogisticRegression" {
		t.Errorf("Expected inherited field, got %v", entries[0])
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo).With(ComponentKey, "linear")

	logger.Debug("hidden")
	logger.Info("Training completed", EpochKey, 500, LossKey, 0.12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["message"] != "Training completed" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry[ComponentKey] != "linear" {
		t.Errorf("expected component field, got %v", entry)
	}
	if entry[EpochKey] != 500.0 {
		t.Errorf("expected epoch 500, got %v", entry[EpochKey])
	}
}

func TestZerologLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := errors.NewShapeError("Predictor.PredictOne", 11, 3, 1)
	logger.Error("Prediction failed", err, OperationKey, OperationPredict)

	var entry map[string]interface{}
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatal(jsonErr)
	}
	if !strings.Contains(entry["error"].(string), "shape mismatch") {
		t.Errorf("expected error field, got %v", entry["error"])
	}
	if entry["type"] != "ShapeError" {
		t.Errorf("expected embedded ShapeError fields, got %v", entry)
	}
	if entry[OperationKey] != OperationPredict {
		t.Errorf("expected operation field, got %v", entry[OperationKey])
	}
}

func TestEnabled(t *testing.T) {
	logger := NewZerologLogger(&bytes.Buffer{}, LevelWarn)
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
	if NopLogger().Enabled(ctx, LevelError) {
		t.Error("nop logger should not be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)
	defer errors.SetZerologWarnFunc(nil)

	var buf bytes.Buffer
	if _, err := SetupLogger(&buf, "info", false); err != nil {
		t.Fatal(err)
	}

	errors.Warn(errors.NewDegenerateColumnWarning(2, "self_employed"))

	out := buf.String()
	if !strings.Contains(out, "zero variance") {
		t.Errorf("expected warning message in output, got %q", out)
	}
	if !strings.Contains(out, `"feature":"self_employed"`) {
		t.Errorf("expected structured warning fields, got %q", out)
	}
}
