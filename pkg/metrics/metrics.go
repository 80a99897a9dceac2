// Package metrics exposes prometheus instrumentation for the launch pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pumplaunch"

// Metrics holds every collector used by the launch flow.
type Metrics struct {
	RPCCalls        *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
	Submissions     *prometheus.CounterVec
	ConfirmAttempts prometheus.Histogram
	ConfirmDuration prometheus.Histogram
	Uploads         *prometheus.CounterVec
	UploadDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RPCCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "Ledger RPC calls by method and status.",
		}, []string{"method", "status"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_call_duration_seconds",
			Help:      "Ledger RPC call latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transactions run through the submission pipeline by terminal state.",
		}, []string{"state"}),
		ConfirmAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirm_attempts",
			Help:      "Status polls needed to reach a terminal state.",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 11},
		}),
		ConfirmDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirm_duration_seconds",
			Help:      "Time from submission to terminal state.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_uploads_total",
			Help:      "Metadata uploads by status.",
		}, []string{"status"}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "metadata_upload_duration_seconds",
			Help:      "Metadata upload latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RPCCalls,
			m.RPCDuration,
			m.Submissions,
			m.ConfirmAttempts,
			m.ConfirmDuration,
			m.Uploads,
			m.UploadDuration,
		)
	}
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRPC records one logical RPC call.
func (m *Metrics) ObserveRPC(method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCCalls.WithLabelValues(method, status(err)).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveSubmission records a pipeline run that ended in state after attempts polls.
func (m *Metrics) ObserveSubmission(state string, attempts int, d time.Duration) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(state).Inc()
	m.ConfirmAttempts.Observe(float64(attempts))
	m.ConfirmDuration.Observe(d.Seconds())
}

// ObserveUpload records one metadata upload.
func (m *Metrics) ObserveUpload(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(status(err)).Inc()
	m.UploadDuration.Observe(d.Seconds())
}
