package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

func TestObserveRun(t *testing.T) {
	m := NewRunMetrics()
	at := time.Unix(1714564800, 0)

	m.ObserveRun(nil, 2, 12*time.Second, at)
	m.ObserveRun(fmt.Errorf("%w: x", internaltypes.ErrLoginFailed), 0, time.Second, at.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("login_failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.slotsFound))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSuccess))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", ResultLabel(nil))
	// login timeouts carry both sentinels; the login label wins
	err := fmt.Errorf("%w: %w", internaltypes.ErrLoginFailed, internaltypes.ErrRemoteTimeout)
	assert.Equal(t, "login_failed", ResultLabel(err))
	assert.Equal(t, "timeout", ResultLabel(internaltypes.ErrRemoteTimeout))
	assert.Equal(t, "error", ResultLabel(fmt.Errorf("boom")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *RunMetrics
	m.ObserveRun(nil, 1, time.Second, time.Now())
	assert.NoError(t, m.Push(context.Background(), "http://unused", "p"))
	assert.Nil(t, m.Registry())
}

func TestPush(t *testing.T) {
	var path, method, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewRunMetrics()
	m.ObserveRun(nil, 1, time.Second, time.Now())
	require.NoError(t, m.Push(context.Background(), srv.URL, "12345"))
	assert.Equal(t, "/metrics/job/visasched/process_id/12345", path)
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasPrefix(contentType, "application/vnd.google.protobuf"), contentType)

	assert.NoError(t, m.Push(context.Background(), "", "12345"))
}
