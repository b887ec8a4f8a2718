package preprocessing

import (
	"strings"

	"github.com/YuminosukeSato/loangate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FeatureNames は特徴量の固定順序（学習時と推論時で同一でなければならない）
var FeatureNames = []string{
	"no_of_dependents",
	"education",
	"self_employed",
	"income_amount",
	"loan_amont",
	"loan_amont_term",
	"cibil_score",
	"residential_assets_value",
	"commercial_assets_value",
	"luxury_assets_value",
	"bank_asset_value",
}

// NumFeatures は特徴量の数
const NumFeatures = 11

// LabelColumn はラベル列の名前
const LabelColumn = "loan_status"

// カテゴリ値のマッピング（小文字化・空白正規化後の値で照合する）
var (
	educationCategories = map[string]float64{
		"graduate":     1,
		"not graduate": 0,
	}
	selfEmployedCategories = map[string]float64{
		"yes": 1,
		"no":  0,
	}
	loanStatusCategories = map[string]float64{
		"approved": 1,
		"rejected": 0,
	}
)

// Record はローン申請1件分の生データ
type Record struct {
	NoOfDependents         float64
	Education              string
	SelfEmployed           string
	IncomeAmount           float64
	LoanAmount             float64
	LoanTerm               float64
	CibilScore             float64
	ResidentialAssetsValue float64
	CommercialAssetsValue  float64
	LuxuryAssetsValue      float64
	BankAssetValue         float64
	LoanStatus             string
}

// normalizeCategory は大文字小文字と前後・連続空白の違いを吸収する
func normalizeCategory(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

func lookupCategory(field, value string, categories map[string]float64, row int) (float64, error) {
	code, ok := categories[normalizeCategory(value)]
	if !ok {
		return 0, errors.NewEncodingError(field, value, row)
	}
	return code, nil
}

// EncodeFeatures はレコードを FeatureNames 順の数値ベクトルに変換する
// 未知のカテゴリ値はデフォルトに落とさず EncodingError を返す
func EncodeFeatures(r Record) ([]float64, error) {
	return encodeFeatures(r, -1)
}

func encodeFeatures(r Record, row int) ([]float64, error) {
	education, err := lookupCategory("education", r.Education, educationCategories, row)
	if err != nil {
		return nil, err
	}
	selfEmployed, err := lookupCategory("self_employed", r.SelfEmployed, selfEmployedCategories, row)
	if err != nil {
		return nil, err
	}

	return []float64{
		r.NoOfDependents,
		education,
		selfEmployed,
		r.IncomeAmount,
		r.LoanAmount,
		r.LoanTerm,
		r.CibilScore,
		r.ResidentialAssetsValue,
		r.CommercialAssetsValue,
		r.LuxuryAssetsValue,
		r.BankAssetValue,
	}, nil
}

// EncodeLabel は "approved"/"rejected" を 1/0 に変換する
func EncodeLabel(status string) (float64, error) {
	return lookupCategory(LabelColumn, status, loanStatusCategories, -1)
}

// Encode はレコードを特徴量ベクトルとラベルに変換する
func Encode(r Record) ([]float64, float64, error) {
	features, err := encodeFeatures(r, -1)
	if err != nil {
		return nil, 0, err
	}
	label, err := EncodeLabel(r.LoanStatus)
	if err != nil {
		return nil, 0, err
	}
	return features, label, nil
}

// EncodeAll はレコード列を特徴量行列とラベルベクトルに変換する
// エラーは問題のある行番号を含む
//
// 使用例:
//
//	X, y, err := preprocessing.EncodeAll(records)
func EncodeAll(records []Record) (*mat.Dense, *mat.VecDense, error) {
	if len(records) == 0 {
		return nil, nil, errors.NewValueError("EncodeAll", "no records to encode")
	}

	X := mat.NewDense(len(records), NumFeatures, nil)
	y := mat.NewVecDense(len(records), nil)

	for i, r := range records {
		features, err := encodeFeatures(r, i)
		if err != nil {
			return nil, nil, err
		}
		label, err := lookupCategory(LabelColumn, r.LoanStatus, loanStatusCategories, i)
		if err != nil {
			return nil, nil, err
		}
		X.SetRow(i, features)
		y.SetVec(i, label)
	}
	return X, y, nil
}
