// Package log defines standard attribute keys for training and inference logs.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so log pipelines can filter on them.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "LogisticRegression", "StandardScaler"
	ModelNameKey = "model.name"

	// ModelIDKey identifies a persisted model snapshot.
	ModelIDKey = "model.id"

	// BiasKey records a trained intercept.
	BiasKey = "model.bias"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "evaluate"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey record the split sizes.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// ColumnKey identifies a single feature column.
	ColumnKey = "data.column"
)

// Performance Metrics
const (
	DurationMsKey   = "perf.duration_ms"
	AccuracyKey     = "metrics.accuracy"
	PrecisionKey    = "metrics.precision"
	RecallKey       = "metrics.recall"
	F1ScoreKey      = "metrics.f1"
	LossKey         = "metrics.loss"
	EpochKey        = "training.epoch"
	PredsKey        = "preds.count"
	ThresholdKey    = "preds.threshold"
	StacktraceKey   = "error.stacktrace"
	ErrorTypeKey    = "error.type"
	SuggestionKey   = "error.suggestion"
	LearningRateKey = "hyperparams.learning_rate"
	EpochsKey       = "hyperparams.epochs"
	RandomSeedKey   = "config.random_seed"
	StoreDriverKey  = "store.driver"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationEncode    = "encode"
	OperationSplit     = "split"
	OperationEvaluate  = "evaluate"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
