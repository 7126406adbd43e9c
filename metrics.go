package vecknn

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines an interface for collecting run metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordLoad is called after a data file is read.
	RecordLoad(name string, rows int, duration time.Duration, err error)

	// RecordSweep is called after a hyperparameter sweep. trials is zero when
	// the sweep was skipped.
	RecordSweep(trials int, validError float64, duration time.Duration, err error)

	// RecordEvaluate is called after a split has been classified.
	RecordEvaluate(split string, total, misclassified int, duration time.Duration)

	// RecordDistances reports how many distances the k-NN classifier computed
	// and how many rows it pruned.
	RecordDistances(computed, pruned int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(string, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordSweep(int, float64, time.Duration, error) {}
func (NoopMetricsCollector) RecordEvaluate(string, int, int, time.Duration) {}
func (NoopMetricsCollector) RecordDistances(int64, int64)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	LoadCount       atomic.Int64
	LoadRows        atomic.Int64
	LoadErrors      atomic.Int64
	SweepCount      atomic.Int64
	SweepTrials     atomic.Int64
	SweepErrors     atomic.Int64
	SweepTotalNanos atomic.Int64
	EvaluateCount   atomic.Int64
	EvaluateRows    atomic.Int64
	Misclassified   atomic.Int64
	DistancesTotal  atomic.Int64
	DistancesPruned atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ string, rows int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadRows.Add(int64(rows))
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordSweep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSweep(trials int, _ float64, duration time.Duration, err error) {
	b.SweepCount.Add(1)
	b.SweepTrials.Add(int64(trials))
	b.SweepTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SweepErrors.Add(1)
	}
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(_ string, total, misclassified int, _ time.Duration) {
	b.EvaluateCount.Add(1)
	b.EvaluateRows.Add(int64(total))
	b.Misclassified.Add(int64(misclassified))
}

// RecordDistances implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDistances(computed, pruned int64) {
	b.DistancesTotal.Add(computed)
	b.DistancesPruned.Add(pruned)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		LoadCount:       b.LoadCount.Load(),
		LoadRows:        b.LoadRows.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		SweepCount:      b.SweepCount.Load(),
		SweepTrials:     b.SweepTrials.Load(),
		SweepErrors:     b.SweepErrors.Load(),
		EvaluateCount:   b.EvaluateCount.Load(),
		EvaluateRows:    b.EvaluateRows.Load(),
		Misclassified:   b.Misclassified.Load(),
		DistancesTotal:  b.DistancesTotal.Load(),
		DistancesPruned: b.DistancesPruned.Load(),
	}
	if s.SweepCount > 0 {
		s.SweepAvgNanos = b.SweepTotalNanos.Load() / s.SweepCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount       int64
	LoadRows        int64
	LoadErrors      int64
	SweepCount      int64
	SweepTrials     int64
	SweepErrors     int64
	SweepAvgNanos   int64
	EvaluateCount   int64
	EvaluateRows    int64
	Misclassified   int64
	DistancesTotal  int64
	DistancesPruned int64
}

// PrometheusCollector records metrics into its own Prometheus registry.
type PrometheusCollector struct {
	registry *prometheus.Registry

	loadRows      *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	loadErrors    *prometheus.CounterVec
	sweepTrials   prometheus.Counter
	sweepDuration prometheus.Histogram
	sweepErrors   prometheus.Counter
	bestError     prometheus.Gauge
	evalRows      *prometheus.CounterVec
	misclassified *prometheus.CounterVec
	errorRate     *prometheus.GaugeVec
	distances     *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector whose metric names start with
// namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	reg := prometheus.NewRegistry()
	p := &PrometheusCollector{registry: reg}

	p.loadRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "load_rows_total",
		Help:      "Rows read per data file.",
	}, []string{"name"})
	p.loadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "load_duration_seconds",
		Help:      "Time spent reading data files.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"name"})
	p.loadErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "load_errors_total",
		Help:      "Failed data file reads.",
	}, []string{"name"})
	p.sweepTrials = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_trials_total",
		Help:      "Hyperparameter values evaluated on the validation split.",
	})
	p.sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Time spent sweeping hyperparameters.",
		Buckets:   prometheus.DefBuckets,
	})
	p.sweepErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_errors_total",
		Help:      "Failed sweeps.",
	})
	p.bestError = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sweep_best_error_ratio",
		Help:      "Validation error of the selected hyperparameter.",
	})
	p.evalRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluated_rows_total",
		Help:      "Rows classified per split.",
	}, []string{"split"})
	p.misclassified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "misclassified_rows_total",
		Help:      "Misclassified rows per split.",
	}, []string{"split"})
	p.errorRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "error_ratio",
		Help:      "Last error rate per split.",
	}, []string{"split"})
	p.distances = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "distances_total",
		Help:      "Training rows visited by the k-NN search, by outcome.",
	}, []string{"outcome"})

	reg.MustRegister(
		p.loadRows, p.loadDuration, p.loadErrors,
		p.sweepTrials, p.sweepDuration, p.sweepErrors, p.bestError,
		p.evalRows, p.misclassified, p.errorRate,
		p.distances,
	)
	return p
}

// Registry returns the underlying registry.
func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// WriteToTextfile writes the metrics in the text exposition format, suitable
// for the node exporter textfile collector.
func (p *PrometheusCollector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

// RecordLoad implements MetricsCollector.
func (p *PrometheusCollector) RecordLoad(name string, rows int, duration time.Duration, err error) {
	if err != nil {
		p.loadErrors.WithLabelValues(name).Inc()
		return
	}
	p.loadRows.WithLabelValues(name).Add(float64(rows))
	p.loadDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordSweep implements MetricsCollector.
func (p *PrometheusCollector) RecordSweep(trials int, validError float64, duration time.Duration, err error) {
	if err != nil {
		p.sweepErrors.Inc()
		return
	}
	if trials == 0 {
		return
	}
	p.sweepTrials.Add(float64(trials))
	p.sweepDuration.Observe(duration.Seconds())
	p.bestError.Set(validError)
}

// RecordEvaluate implements MetricsCollector.
func (p *PrometheusCollector) RecordEvaluate(split string, total, misclassified int, _ time.Duration) {
	p.evalRows.WithLabelValues(split).Add(float64(total))
	p.misclassified.WithLabelValues(split).Add(float64(misclassified))
	rate := 0.0
	if total > 0 {
		rate = float64(misclassified) / float64(total)
	}
	p.errorRate.WithLabelValues(split).Set(rate)
}

// RecordDistances implements MetricsCollector.
func (p *PrometheusCollector) RecordDistances(computed, pruned int64) {
	p.distances.WithLabelValues("computed").Add(float64(computed))
	p.distances.WithLabelValues("pruned").Add(float64(pruned))
}
