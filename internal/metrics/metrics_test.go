package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordGeneration(t *testing.T) {
	m := New()

	m.RecordGeneration(200*time.Millisecond, "")
	m.RecordGeneration(time.Second, "rate_limited")
	m.RecordGeneration(time.Second, "rate_limited")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendErrorsTotal.WithLabelValues("rate_limited")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BackendErrorsTotal.WithLabelValues("generic")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.GenerationDuration))
}

func TestRecordToolCallAndTokens(t *testing.T) {
	m := New()

	m.RecordToolCall("create_task", false)
	m.RecordToolCall("create_task", true)
	m.RecordToolCall("delete_task", false)
	m.RecordTokens(100, 40)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("create_task", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("delete_task", "ok")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("input")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("output")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordGeneration(time.Second, "generic")
		m.RecordTokens(1, 1)
		m.RecordToolCall("x", true)
		m.RecordHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordHTTP("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `foundry_http_requests_total{method="GET",route="/health",status="200"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()
	a.RecordToolCall("create_task", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ToolCallsTotal.WithLabelValues("create_task", "ok")))
}
