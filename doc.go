// Package loangate trains a loan approval classifier and serves its
// predictions.
//
// A logistic regression is fitted by batch gradient descent on standardized
// applicant features. The trained weights, bias and scaler statistics are
// frozen into a snapshot, so a predictor can be rebuilt later without the
// training data.
//
// # Packages
//
//   - preprocessing: categorical encoding, z-score scaling and the seeded train/test split
//   - linear: LogisticRegression with batch gradient descent
//   - metrics: confusion matrix, accuracy, precision, recall, F1, log loss and the loss curve plot
//   - approval: the training pipeline, the Predictor and the Service that publishes snapshots
//   - dataset: CSV reading for the loan approval dataset
//   - store: snapshot persistence in a JSON file, PostgreSQL or Redis
//   - config: YAML configuration with environment overrides
//   - pkg/telemetry: Prometheus gauges and counters for evaluation and predictions
//
// # Quick Start
//
//	records, err := dataset.LoadCSV("loan_approval_dataset.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pipeline, err := approval.NewPipeline(approval.DefaultConfig(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pipeline.Train(context.Background(), records)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report)
//
//	label, err := result.Predictor.PredictRecord(records[0])
//
// # Command Line
//
//	loangate train --data loan_approval_dataset.csv --out model.json --loss-plot loss.png
//	loangate predict --model model.json --csv applications.csv
//	loangate show --model model.json
//
// # Error Handling
//
// Errors are built with cockroachdb/errors through pkg/errors and carry stack
// traces. Typed errors (ShapeError, NotFittedError, EncodingError,
// NumericalInstabilityError) can be inspected with errors.As.
// Non-fatal conditions such as a zero-variance column are reported as
// warnings through the zerolog logger.
package loangate
