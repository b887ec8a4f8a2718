package metrics

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// epsilon は分母がゼロになるのを防ぐ平滑化項
const epsilon = 1e-8

// ConfusionMatrix は二値分類の混同行列
// 添字は [真のクラス][予測クラス]、すなわち [[TN, FP], [FN, TP]]
type ConfusionMatrix [2][2]int

// TN は真陰性の数
func (cm ConfusionMatrix) TN() int { return cm[0][0] }

// FP は偽陽性の数
func (cm ConfusionMatrix) FP() int { return cm[0][1] }

// FN は偽陰性の数
func (cm ConfusionMatrix) FN() int { return cm[1][0] }

// TP は真陽性の数
func (cm ConfusionMatrix) TP() int { return cm[1][1] }

// Total は全サンプル数
func (cm ConfusionMatrix) Total() int {
	return cm.TN() + cm.FP() + cm.FN() + cm.TP()
}

// Accuracy = (TP+TN) / 全体
func (cm ConfusionMatrix) Accuracy() float64 {
	if cm.Total() == 0 {
		return 0
	}
	return float64(cm.TP()+cm.TN()) / float64(cm.Total())
}

// Precision = TP / (TP+FP+ε)
func (cm ConfusionMatrix) Precision() float64 {
	return float64(cm.TP()) / (float64(cm.TP()+cm.FP()) + epsilon)
}

// Recall = TP / (TP+FN+ε)
func (cm ConfusionMatrix) Recall() float64 {
	return float64(cm.TP()) / (float64(cm.TP()+cm.FN()) + epsilon)
}

// F1 = 2pr / (p+r+ε)
func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	return 2 * p * r / (p + r + epsilon)
}

// String は混同行列を表形式で返す
func (cm ConfusionMatrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "            pred=0  pred=1\n")
	fmt.Fprintf(&b, "true=0  %8d%8d\n", cm.TN(), cm.FP())
	fmt.Fprintf(&b, "true=1  %8d%8d", cm.FN(), cm.TP())
	return b.String()
}

// NewConfusionMatrix は真のラベルと予測ラベルから混同行列を作る
// ラベルは 0 または 1 でなければならない
func NewConfusionMatrix(yTrue, yPred mat.Vector) (ConfusionMatrix, error) {
	var cm ConfusionMatrix

	n := yTrue.Len()
	if n == 0 {
		return cm, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return cm, errors.NewShapeError("NewConfusionMatrix", n, yPred.Len(), 0)
	}

	for i := 0; i < n; i++ {
		t, err := binaryLabel(yTrue.AtVec(i), "yTrue", i)
		if err != nil {
			return cm, err
		}
		p, err := binaryLabel(yPred.AtVec(i), "yPred", i)
		if err != nil {
			return cm, err
		}
		cm[t][p]++
	}
	return cm, nil
}

func binaryLabel(v float64, name string, i int) (int, error) {
	switch v {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	default:
		return 0, errors.NewValueError("NewConfusionMatrix",
			fmt.Sprintf("%s must contain only 0 or 1, got %v at index %d", name, v, i))
	}
}

// warnUndefined は陽性の予測または陽性の真値が存在しない場合に警告する
func warnUndefined(cm ConfusionMatrix, precision, recall bool) {
	if precision && cm.TP()+cm.FP() == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positive samples", cm.Precision()))
	}
	if recall && cm.TP()+cm.FN() == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true positive samples", cm.Recall()))
	}
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred mat.Vector) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Accuracy(), nil
}

// Precision は適合率を計算する
func Precision(yTrue, yPred mat.Vector) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	warnUndefined(cm, true, false)
	return cm.Precision(), nil
}

// Recall は再現率を計算する
func Recall(yTrue, yPred mat.Vector) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	warnUndefined(cm, false, true)
	return cm.Recall(), nil
}

// F1Score は適合率と再現率の調和平均を計算する
func F1Score(yTrue, yPred mat.Vector) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	warnUndefined(cm, true, true)
	return cm.F1(), nil
}

// ClassificationReport はテスト分割上の評価結果
type ClassificationReport struct {
	Accuracy        float64
	Precision       float64
	Recall          float64
	F1              float64
	ConfusionMatrix ConfusionMatrix
	Support         int
}

// Evaluate は全ての分類指標をまとめて計算する
//
// 使用例:
//
//	report, err := metrics.Evaluate(split.YTest, yPred)
//	fmt.Println(report)
func Evaluate(yTrue, yPred mat.Vector) (*ClassificationReport, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	warnUndefined(cm, true, true)

	return &ClassificationReport{
		Accuracy:        cm.Accuracy(),
		Precision:       cm.Precision(),
		Recall:          cm.Recall(),
		F1:              cm.F1(),
		ConfusionMatrix: cm,
		Support:         cm.Total(),
	}, nil
}

// ToRecord はスナップショットに保存する形式へ変換する
func (r *ClassificationReport) ToRecord() *model.EvaluationRecord {
	if r == nil {
		return nil
	}
	return &model.EvaluationRecord{
		Accuracy:        r.Accuracy,
		Precision:       r.Precision,
		Recall:          r.Recall,
		F1Score:         r.F1,
		ConfusionMatrix: r.ConfusionMatrix,
		Support:         r.Support,
	}
}

// ReportFromRecord はスナップショットの評価記録からレポートを復元する
func ReportFromRecord(rec *model.EvaluationRecord) *ClassificationReport {
	if rec == nil {
		return nil
	}
	return &ClassificationReport{
		Accuracy:        rec.Accuracy,
		Precision:       rec.Precision,
		Recall:          rec.Recall,
		F1:              rec.F1Score,
		ConfusionMatrix: ConfusionMatrix(rec.ConfusionMatrix),
		Support:         rec.Support,
	}
}

// String はレポートを人が読める形式で返す
func (r *ClassificationReport) String() string {
	return fmt.Sprintf("accuracy:  %.4f\nprecision: %.4f\nrecall:    %.4f\nf1:        %.4f\nsupport:   %d\n%s",
		r.Accuracy, r.Precision, r.Recall, r.F1, r.Support, r.ConfusionMatrix)
}
