package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLoanCSV(t *testing.T, dir string, n int) string {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	var b strings.Builder
	b.WriteString("loan_id, no_of_dependents, education, self_employed, income_amount, loan_amont, loan_amont_term, cibil_score, residential_assets_value, commercial_assets_value, luxury_assets_value, bank_asset_value, loan_status\n")
	for i := 0; i < n; i++ {
		cibil, status := 300+rng.Intn(300), "Rejected"
		if i%2 == 0 {
			cibil, status = 701+rng.Intn(200), "Approved"
		}
		edu := "Graduate"
		if rng.Intn(2) == 0 {
			edu = "Not Graduate"
		}
		fmt.Fprintf(&b, "%d, %d, %s, No, %.0f, %.0f, %d, %d, %.0f, %.0f, %.0f, %.0f, %s\n",
			i+1, rng.Intn(6), edu,
			2e5+rng.Float64()*9.7e6, 3e5+rng.Float64()*3.8e7, 2*(1+rng.Intn(10)), cibil,
			rng.Float64()*2.9e7, rng.Float64()*1.9e7, 3e5+rng.Float64()*3.8e7, rng.Float64()*1.4e7,
			status)
	}

	path := filepath.Join(dir, "loans.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseRecordFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "pairs",
			input: "cibil_score=778, education= Graduate",
			want:  map[string]string{"cibil_score": "778", "education": " Graduate"},
		},
		{
			name:  "trailing comma",
			input: "loan_amont_term=12,",
			want:  map[string]string{"loan_amont_term": "12"},
		},
		{
			name:    "missing value separator",
			input:   "cibil_score",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecordFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRecordFlag() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseRecordFlag() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseRecordFlag()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestTrainPredictShow(t *testing.T) {
	dir := t.TempDir()
	data := writeLoanCSV(t, dir, 1000)
	modelPath := filepath.Join(dir, "model.json")
	metricsPath := filepath.Join(dir, "loangate.prom")
	cfgPath := filepath.Join(dir, "loangate.yaml")
	if err := os.WriteFile(cfgPath, []byte("seed: 42\nlog_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "train", "--data", data, "--out", modelPath, "--metrics-file", metricsPath)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if !strings.Contains(out, "train=800, test=200") {
		t.Errorf("train output missing split sizes:\n%s", out)
	}
	if _, err := os.Stat(modelPath); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(prom), "loangate_model_accuracy") {
		t.Errorf("metrics file missing accuracy gauge:\n%s", prom)
	}

	record := "no_of_dependents=2,education=Graduate,self_employed=No,income_amount=9600000," +
		"loan_amont=29900000,loan_amont_term=12,cibil_score=880,residential_assets_value=2400000," +
		"commercial_assets_value=17600000,luxury_assets_value=22700000,bank_asset_value=8000000"
	out, err = run(t, "predict", "--model", modelPath, "--record", record)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !strings.HasPrefix(out, "0\tapproved\t") {
		t.Errorf("predict output = %q, want an approval", out)
	}

	out, err = run(t, "show", "--model", modelPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"cibil_score", "epochs:        1000", "(seed 42)"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestPredictRequiresOneInput(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")

	if _, err := run(t, "predict", "--model", modelPath); err == nil {
		t.Error("expected error without --record or --csv")
	}
	if _, err := run(t, "predict", "--model", modelPath, "--record", "a=1", "--csv", "x.csv"); err == nil {
		t.Error("expected error with both --record and --csv")
	}
}
