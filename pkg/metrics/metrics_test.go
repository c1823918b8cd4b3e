package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditdoc/auditdoc/pkg/varpath"
)

func newMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New()
	require.NoError(t, err)
	return m
}

func TestObserveRequest(t *testing.T) {
	m := newMetrics(t)
	m.ObserveRequest("/schemas", http.MethodGet, 200, 3*time.Millisecond)
	m.ObserveRequest("/schemas", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest("/schemas/{key}", http.MethodGet, 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/schemas", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/schemas/{key}", "GET", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestRequestStarted(t *testing.T) {
	m := newMetrics(t)
	done := m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestRecordValidation(t *testing.T) {
	m := newMetrics(t)
	m.RecordValidation(varpath.OK)
	m.RecordValidation(varpath.FieldNotFound)
	m.RecordValidation(varpath.FieldNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationsTotal.WithLabelValues("field_not_found")))
}

func TestRecordPreview(t *testing.T) {
	m := newMetrics(t)
	m.RecordPreview(false, 2, nil)
	m.RecordPreview(true, 2, nil)
	m.RecordPreview(false, 0, errors.New("unbalanced"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.previewsTotal.WithLabelValues("miss", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.previewsTotal.WithLabelValues("hit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.previewsTotal.WithLabelValues("miss", "error")))
}

func TestRecordToolCall(t *testing.T) {
	m := newMetrics(t)
	m.RecordToolCall("validate_variable", false)
	m.RecordToolCall("validate_variable", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("validate_variable", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("validate_variable", "error")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestStarted()()
		m.ObserveRequest("/", "GET", 200, time.Second)
		m.RecordValidation(varpath.Malformed)
		m.RecordPreview(true, 1, nil)
		m.RecordToolCall("x", false)
	})
}

func TestHandler(t *testing.T) {
	m := newMetrics(t)
	m.RecordValidation(varpath.SchemaNotFound)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, `auditdoc_variable_validations_total{result="schema_not_found"} 1`), out)
	assert.Contains(t, out, "go_goroutines")
}

func TestNew_Independent(t *testing.T) {
	// Each instance owns its registry, so two can coexist.
	a := newMetrics(t)
	b := newMetrics(t)
	a.RecordValidation(varpath.OK)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.validationsTotal.WithLabelValues("ok")))
}
