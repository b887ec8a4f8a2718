package metrics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLossCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loss.png")

	if err := SaveLossCurve(path, []float64{0.69, 0.5, 0.4, 0.35}); err != nil {
		t.Fatalf("SaveLossCurve failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}

	if err := SaveLossCurve(path, nil); err == nil {
		t.Error("expected error for empty history")
	}
}
