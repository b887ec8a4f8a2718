package linear

import "github.com/YuminosukeSato/loangate/pkg/log"

// Option はLogisticRegressionの関数オプション
type Option func(*LogisticRegression)

// WithLearningRate は勾配降下の学習率を設定する
func WithLearningRate(lr float64) Option {
	return func(m *LogisticRegression) {
		m.learningRate = lr
	}
}

// WithEpochs は全データに対する更新回数を設定する
func WithEpochs(n int) Option {
	return func(m *LogisticRegression) {
		m.epochs = n
	}
}

// WithLossHistory は各エポックの平均損失を記録するかを設定する
func WithLossHistory(record bool) Option {
	return func(m *LogisticRegression) {
		m.recordLoss = record
	}
}

// WithLogger はロガーを設定する
func WithLogger(l log.Logger) Option {
	return func(m *LogisticRegression) {
		if l != nil {
			m.logger = l
		}
	}
}
