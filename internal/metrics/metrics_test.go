package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnalyze_Snapshot(t *testing.T) {
	m := New()

	m.RecordAnalyze(OutcomeFused, 120*time.Millisecond)
	m.RecordAnalyze(OutcomeStub, 5*time.Millisecond)
	m.RecordAnalyze(OutcomeRejected, time.Millisecond)
	m.RecordAnalyze(OutcomeFailed, time.Second)
	m.RecordStubFallback()

	snap := m.GetSnapshot()
	assert.Equal(t, int64(4), snap.RequestsTotal)
	assert.Equal(t, int64(2), snap.RequestsSuccess)
	assert.Equal(t, int64(2), snap.RequestsFailed)
	assert.Equal(t, int64(1), snap.StubServed)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	m.RecordAnalyze(OutcomeFused, time.Second)
	m.RecordEngineInvocation("tesseract", "success")
	m.RecordStubFallback()

	assert.Equal(t, Snapshot{}, m.GetSnapshot())
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.RecordEngineInvocation("tesseract", "success")
	m.RecordAnalyze(OutcomeFused, 50*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "ocrworker_engine_invocations_total"))
	assert.True(t, strings.Contains(body, "ocrworker_analyze_requests_total"))
}

func TestIndependentRegistries(t *testing.T) {
	first := New()
	second := New()

	first.RecordAnalyze(OutcomeFused, time.Millisecond)

	assert.Equal(t, int64(1), first.GetSnapshot().RequestsTotal)
	assert.Equal(t, int64(0), second.GetSnapshot().RequestsTotal)
}
