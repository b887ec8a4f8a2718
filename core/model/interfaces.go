package model

import "gonum.org/v1/gonum/mat"

// Transformer は特徴量変換のインターフェース
// Fit で統計量を固定し、Transform は常にその統計量を使う
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (*mat.Dense, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// Classifier は二値分類器のインターフェース
type Classifier interface {
	// Fit はモデルを訓練データで学習させる（y は 0/1 ラベル）
	Fit(X mat.Matrix, y mat.Vector) error

	// Predict は 0/1 ラベルを返す
	Predict(X mat.Matrix) (*mat.VecDense, error)

	// PredictProba は陽性クラスの確率を返す
	PredictProba(X mat.Matrix) (*mat.VecDense, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coefficients は学習された重み（係数）のコピーを返す
	Coefficients() []float64
	// Bias は学習された切片を返す
	Bias() float64
}
