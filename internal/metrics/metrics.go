// Package metrics records per-invocation run metrics and pushes them to a
// Prometheus Pushgateway, since a single check exits before any scrape.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

const (
	namespace = "visasched"
	job       = "visasched"
)

type RunMetrics struct {
	reg         *prometheus.Registry
	runsTotal   *prometheus.CounterVec
	slotsFound  prometheus.Gauge
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		reg: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Appointment checks by result",
		}, []string{"result"}),
		slotsFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slots_found",
			Help:      "Open days within bounds in the last check",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one check",
			Buckets:   []float64{5, 10, 20, 30, 60, 90, 120, 180, 300},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful check",
		}),
	}
	m.reg.MustRegister(m.runsTotal, m.slotsFound, m.duration, m.lastSuccess)
	return m
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveRun records one finished check. err is nil on success.
func (m *RunMetrics) ObserveRun(err error, slots int, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(ResultLabel(err)).Inc()
	m.slotsFound.Set(float64(slots))
	m.duration.Observe(took.Seconds())
	if err == nil {
		m.lastSuccess.Set(float64(at.Unix()))
	}
}

// Push sends the registry to a Pushgateway grouped by process id.
func (m *RunMetrics) Push(ctx context.Context, url, processID string) error {
	if m == nil || url == "" {
		return nil
	}
	err := push.New(url, job).
		Gatherer(m.reg).
		Grouping("process_id", processID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("metrics: push: %w", err)
	}
	return nil
}

var resultLabels = []struct {
	err   error
	label string
}{
	{internaltypes.ErrMissingCredentials, "missing_credentials"},
	{internaltypes.ErrLoginFailed, "login_failed"},
	{internaltypes.ErrCurrentAppointmentNotFound, "current_not_found"},
	{internaltypes.ErrNoAppointmentsAvailable, "none_available"},
	{internaltypes.ErrTransactionFailed, "reschedule_failed"},
	{internaltypes.ErrNotificationConfigMissing, "notification_config"},
	{internaltypes.ErrInvalidDateInput, "invalid_input"},
	{internaltypes.ErrRemoteTimeout, "timeout"},
}

// ResultLabel maps an invocation error to a low-cardinality label.
func ResultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	for _, r := range resultLabels {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "error"
}
