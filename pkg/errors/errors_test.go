package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "loangate: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "loangate: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewShapeError(t *testing.T) {
	err := NewShapeError("Predictor.PredictOne", 11, 10, 1)

	want := "loangate: Predictor.PredictOne: shape mismatch on axis 1 (features). Expected 11, got 10"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var shapeErr *ShapeError
	if !As(err, &shapeErr) {
		t.Fatal("Error should be castable to *ShapeError")
	}
	if shapeErr.Expected != 11 || shapeErr.Got != 10 {
		t.Errorf("unexpected fields: %+v", shapeErr)
	}
}

func TestNewEncodingError(t *testing.T) {
	tests := []struct {
		name    string
		row     int
		wantMsg string
	}{
		{
			name:    "single record",
			row:     -1,
			wantMsg: `loangate: unrecognized value "maybe" for field 'self_employed'`,
		},
		{
			name:    "batch row",
			row:     7,
			wantMsg: `loangate: row 7: unrecognized value "maybe" for field 'self_employed'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEncodingError("self_employed", "maybe", tt.row)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}
			var encErr *EncodingError
			if !As(err, &encErr) {
				t.Error("Error should be castable to *EncodingError")
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	want := "loangate: LogisticRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("learning_rate", "must be positive", -0.5)

	want := "loangate: validation failed for parameter 'learning_rate': must be positive (got: -0.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValidationError")
	}
}

func TestWarn(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewDegenerateColumnWarning(3, "income_amount"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	want := "column 3 (income_amount) has zero variance; standardization would divide by zero"
	if got[0].Error() != want {
		t.Errorf("Error() = %v, want %v", got[0].Error(), want)
	}

	// zerolog関数が設定されている場合はそちらが優先される
	var routed int
	SetZerologWarnFunc(func(w error) { routed++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))
	if routed != 1 || len(got) != 1 {
		t.Errorf("expected warning to be routed to zerolog func, routed=%d handler=%d", routed, len(got))
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("weights", []float64{0.1, -2, 3}, -1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("weights", []float64{0.1, math.NaN(), 3}, 4)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Iteration != 4 || len(numErr.Values) != 1 {
		t.Errorf("unexpected fields: %+v", numErr)
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
