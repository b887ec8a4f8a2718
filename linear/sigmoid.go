package linear

import "math"

// DecisionThreshold 以上の確率を陽性(1)と判定する
const DecisionThreshold = 0.5

// Sigmoid は数値的に安定なロジスティック関数
// z >= 0 では 1/(1+e^-z)、z < 0 では e^z/(1+e^z) を使い、exp のオーバーフローを避ける
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// Classify は確率を 0/1 ラベルに変換する。p == 0.5 は 1
func Classify(p float64) int {
	if p >= DecisionThreshold {
		return 1
	}
	return 0
}

// logisticLoss はロジット z とラベル y に対する交差エントロピー
// log(1+e^-|z|) + max(z,0) - y*z の形で計算し、p が 0/1 に飽和しても有限値を返す
func logisticLoss(z, y float64) float64 {
	return math.Log1p(math.Exp(-math.Abs(z))) + math.Max(z, 0) - y*z
}
