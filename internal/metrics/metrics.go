// Package metrics exposes Prometheus metrics for submissions and imports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contacts"

// Collector records row, run, submission and HTTP metrics. It satisfies
// ingest.Recorder.
type Collector struct {
	rows        *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runRows     *prometheus.CounterVec
	runDuration prometheus.Histogram
	submissions *prometheus.CounterVec
	httpStatus  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Import rows by outcome class.",
		}, []string{"class"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Import runs by terminal state.",
		}, []string{"state"}),
		runRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_run_rows_total",
			Help:      "Rows tallied by finished runs, split into inserted and rejected.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_run_duration_seconds",
			Help:      "Wall time of import runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Form submissions by outcome class.",
		}, []string{"class"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.rows,
		c.runs,
		c.runRows,
		c.runDuration,
		c.submissions,
		c.httpStatus,
	)

	return c
}

// RecordRow counts one processed import row.
func (c *Collector) RecordRow(class string) {
	c.rows.WithLabelValues(class).Inc()
}

// RecordRun counts a finished run and its tally.
func (c *Collector) RecordRun(state string, inserted, rejected int, d time.Duration) {
	c.runs.WithLabelValues(state).Inc()
	c.runRows.WithLabelValues("inserted").Add(float64(inserted))
	c.runRows.WithLabelValues("rejected").Add(float64(rejected))
	c.runDuration.Observe(d.Seconds())
}

// RecordSubmission counts one form submission.
func (c *Collector) RecordSubmission(class string) {
	c.submissions.WithLabelValues(class).Inc()
}

// RecordHTTPStatus counts one HTTP response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
