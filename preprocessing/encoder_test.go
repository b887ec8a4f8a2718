package preprocessing

import (
	"testing"

	"github.com/YuminosukeSato/loangate/pkg/errors"
)

func sampleRecord() Record {
	return Record{
		NoOfDependents:         2,
		Education:              "Graduate",
		SelfEmployed:           "No",
		IncomeAmount:           9600000,
		LoanAmount:             29900000,
		LoanTerm:               12,
		CibilScore:             778,
		ResidentialAssetsValue: 2400000,
		CommercialAssetsValue:  17600000,
		LuxuryAssetsValue:      22700000,
		BankAssetValue:         8000000,
		LoanStatus:             "Approved",
	}
}

func TestEncodeCategorical(t *testing.T) {
	tests := []struct {
		name      string
		education string
		want      float64
		wantErr   bool
	}{
		{name: "Title case", education: "Graduate", want: 1},
		{name: "Padded", education: " graduate ", want: 1},
		{name: "Upper case", education: "GRADUATE", want: 1},
		{name: "Not graduate", education: "Not Graduate", want: 0},
		{name: "Not graduate with extra spaces", education: "  not   graduate", want: 0},
		{name: "Unknown value", education: "PhD", wantErr: true},
		{name: "Empty value", education: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			r.Education = tt.education

			features, err := EncodeFeatures(r)
			if tt.wantErr {
				var encErr *errors.EncodingError
				if !errors.As(err, &encErr) {
					t.Fatalf("expected EncodingError, got %v", err)
				}
				if encErr.Field != "education" || encErr.Value != tt.education {
					t.Errorf("EncodingError = %+v", encErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if features[1] != tt.want {
				t.Errorf("education = %v, want %v", features[1], tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	r := sampleRecord()
	r.SelfEmployed = " YES"

	features, label, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(features) != NumFeatures || len(FeatureNames) != NumFeatures {
		t.Fatalf("expected %d features, got %d", NumFeatures, len(features))
	}

	want := []float64{2, 1, 1, 9600000, 29900000, 12, 778, 2400000, 17600000, 22700000, 8000000}
	for i := range want {
		if features[i] != want[i] {
			t.Errorf("feature %s = %v, want %v", FeatureNames[i], features[i], want[i])
		}
	}
	if label != 1 {
		t.Errorf("label = %v, want 1", label)
	}

	r.LoanStatus = " rejected "
	if _, label, _ = Encode(r); label != 0 {
		t.Errorf("label = %v, want 0", label)
	}

	r.LoanStatus = "pending"
	if _, _, err = Encode(r); err == nil {
		t.Error("expected error for unknown loan_status")
	}
}

func TestEncodeAll(t *testing.T) {
	records := []Record{sampleRecord(), sampleRecord(), sampleRecord()}
	records[1].LoanStatus = "Rejected"

	X, y, err := EncodeAll(records)
	if err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}
	r, c := X.Dims()
	if r != 3 || c != NumFeatures {
		t.Fatalf("dims = (%d, %d), want (3, %d)", r, c, NumFeatures)
	}
	if y.AtVec(0) != 1 || y.AtVec(1) != 0 || y.AtVec(2) != 1 {
		t.Errorf("labels = %v", y.RawVector().Data)
	}

	t.Run("error names the row", func(t *testing.T) {
		bad := []Record{sampleRecord(), sampleRecord()}
		bad[1].SelfEmployed = "maybe"

		_, _, err := EncodeAll(bad)
		var encErr *errors.EncodingError
		if !errors.As(err, &encErr) {
			t.Fatalf("expected EncodingError, got %v", err)
		}
		if encErr.Row != 1 || encErr.Field != "self_employed" {
			t.Errorf("EncodingError = %+v", encErr)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, _, err := EncodeAll(nil); err == nil {
			t.Error("expected error for empty input")
		}
	})
}
