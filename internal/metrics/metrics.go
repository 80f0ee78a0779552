// Package metrics records scaffold runs as Prometheus metrics.
//
// drfkit is a one-shot process, so nothing is served over HTTP. A Recorder
// owns a private registry that can be written to a node-exporter textfile
// with WriteTextfile after the run.
//
// Metrics collected:
//   - drfkit_files_copied_total: files written into the new project
//   - drfkit_bytes_copied_total: bytes written into the new project
//   - drfkit_entries_excluded_total: template entries skipped by name
//   - drfkit_files_rewritten_total: files whose placeholder was substituted
//   - drfkit_files_binary_total: files left untouched as binary
//   - drfkit_rewrite_errors_total: file-scoped rewrite failures
//   - drfkit_step_duration_seconds: duration of each scaffold step
//   - drfkit_runs_total: runs by result
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run results used as the runs_total label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type config struct {
	namespace   string
	constLabels prometheus.Labels
	buckets     []float64
}

// Option configures a Recorder.
type Option func(*config)

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *config) {
		c.constLabels = labels
	}
}

func defaultConfig() config {
	return config{
		namespace: "drfkit",
		// Scaffold steps run from microseconds (env) to seconds (git init).
		buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
	}
}

// Recorder holds the metrics for scaffold runs.
type Recorder struct {
	registry *prometheus.Registry

	filesCopied     prometheus.Counter
	bytesCopied     prometheus.Counter
	entriesExcluded prometheus.Counter
	filesRewritten  prometheus.Counter
	filesBinary     prometheus.Counter
	rewriteErrors   prometheus.Counter
	stepDuration    *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
}

// New creates a Recorder and registers its metrics.
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.namespace,
			Name:        name,
			Help:        help,
			ConstLabels: config.constLabels,
		})
	}

	return &Recorder{
		registry:        registry,
		filesCopied:     counter("files_copied_total", "Total number of template files copied"),
		bytesCopied:     counter("bytes_copied_total", "Total number of bytes copied"),
		entriesExcluded: counter("entries_excluded_total", "Total number of template entries skipped by exclusion"),
		filesRewritten:  counter("files_rewritten_total", "Total number of files with the placeholder substituted"),
		filesBinary:     counter("files_binary_total", "Total number of files skipped as binary"),
		rewriteErrors:   counter("rewrite_errors_total", "Total number of file-scoped rewrite failures"),

		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.namespace,
			Name:        "step_duration_seconds",
			Help:        "Scaffold step duration in seconds",
			ConstLabels: config.constLabels,
			Buckets:     config.buckets,
		}, []string{"step"}),

		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.namespace,
			Name:        "runs_total",
			Help:        "Total number of scaffold runs by result",
			ConstLabels: config.constLabels,
		}, []string{"result"}),
	}
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveCopy records the outcome of the copy step.
func (r *Recorder) ObserveCopy(files int, bytes int64, excluded int) {
	if r == nil {
		return
	}
	r.filesCopied.Add(float64(files))
	r.bytesCopied.Add(float64(bytes))
	r.entriesExcluded.Add(float64(excluded))
}

// ObserveRewrite records the outcome of the rewrite step.
func (r *Recorder) ObserveRewrite(rewritten, binary, failed int) {
	if r == nil {
		return
	}
	r.filesRewritten.Add(float64(rewritten))
	r.filesBinary.Add(float64(binary))
	r.rewriteErrors.Add(float64(failed))
}

// ObserveStep records how long a step took.
func (r *Recorder) ObserveStep(step string, d time.Duration) {
	if r == nil {
		return
	}
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(err error) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	r.runsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is written atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
