// Package telemetry exports model quality and prediction counters as
// Prometheus metrics. Recorder uses its own registry so that several
// recorders (one per test, one per CLI run) never collide on the global one.
package telemetry

import (
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/YuminosukeSato/loangate/metrics"
	"github.com/YuminosukeSato/loangate/pkg/errors"
)

const namespace = "loangate"

// Recorder holds every metric the service reports.
type Recorder struct {
	registry *prometheus.Registry

	Accuracy  prometheus.Gauge
	Precision prometheus.Gauge
	Recall    prometheus.Gauge
	F1        prometheus.Gauge

	ConfusionMatrix  *prometheus.GaugeVec
	Predictions      *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
}

// NewRecorder creates a Recorder registered on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		Accuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_accuracy",
			Help:      "Accuracy of the current model on its test split",
		}),
		Precision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_precision",
			Help:      "Precision of the current model on its test split",
		}),
		Recall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_recall",
			Help:      "Recall of the current model on its test split",
		}),
		F1: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_f1",
			Help:      "F1 score of the current model on its test split",
		}),

		ConfusionMatrix: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "confusion_matrix",
				Help:      "Confusion matrix cells of the current model by true and predicted label",
			},
			[]string{"true", "pred"},
		),

		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of predictions served by label",
			},
			[]string{"label"},
		),

		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall-clock duration of training runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	r.registry.MustRegister(
		r.Accuracy,
		r.Precision,
		r.Recall,
		r.F1,
		r.ConfusionMatrix,
		r.Predictions,
		r.TrainingDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordReport sets the quality gauges from an evaluation report.
func (r *Recorder) RecordReport(report *metrics.ClassificationReport) {
	if r == nil || report == nil {
		return
	}
	r.Accuracy.Set(report.Accuracy)
	r.Precision.Set(report.Precision)
	r.Recall.Set(report.Recall)
	r.F1.Set(report.F1)

	for t := 0; t < 2; t++ {
		for p := 0; p < 2; p++ {
			r.ConfusionMatrix.WithLabelValues(strconv.Itoa(t), strconv.Itoa(p)).
				Set(float64(report.ConfusionMatrix[t][p]))
		}
	}
}

// ClearReport marks the quality gauges as unknown (NaN) and drops every
// confusion matrix series. Used when the published model has no test metrics.
func (r *Recorder) ClearReport() {
	if r == nil {
		return
	}
	r.Accuracy.Set(math.NaN())
	r.Precision.Set(math.NaN())
	r.Recall.Set(math.NaN())
	r.F1.Set(math.NaN())
	r.ConfusionMatrix.Reset()
}

// ObserveTraining records the duration of one training run.
func (r *Recorder) ObserveTraining(d time.Duration) {
	if r == nil {
		return
	}
	r.TrainingDuration.Observe(d.Seconds())
}

// CountPrediction increments the counter for a predicted label.
func (r *Recorder) CountPrediction(label int) {
	if r == nil {
		return
	}
	r.Predictions.WithLabelValues(strconv.Itoa(label)).Inc()
}

// PredictionCount reads back the current counter value for a label.
func (r *Recorder) PredictionCount(label int) float64 {
	counter, err := r.Predictions.GetMetricWithLabelValues(strconv.Itoa(label))
	if err != nil {
		return 0
	}
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// WriteTextfile writes every metric in the Prometheus text format, for the
// node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
