package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersnap/ocr-worker/internal/config"
)

func TestGCVProbe(t *testing.T) {
	probe := &GCVProbe{}
	ok, reason := probe.Probe(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "GOOGLE_APPLICATION_CREDENTIALS not set or file missing", reason)

	probe = &GCVProbe{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}
	ok, _ = probe.Probe(context.Background())
	assert.False(t, ok)

	creds := filepath.Join(t.TempDir(), "gcv.json")
	require.NoError(t, os.WriteFile(creds, []byte("{}"), 0o600))
	probe = &GCVProbe{CredentialsFile: creds}
	ok, reason = probe.Probe(context.Background())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestSuryaProbe_MissingBinary(t *testing.T) {
	probe := &SuryaProbe{Binary: "definitely-not-a-real-binary-name"}
	ok, reason := probe.Probe(context.Background())
	assert.False(t, ok)
	assert.Contains(t, reason, "not found on PATH")
}

func TestDeepSeekProbe_NoURL(t *testing.T) {
	probe := NewDeepSeekProbe(config.DeepSeekConfig{})
	ok, reason := probe.Probe(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "DEEPSEEK_OCR_URL not configured", reason)
}

func TestDeepSeekProbe_Health(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/ocr/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	probe := NewDeepSeekProbe(config.DeepSeekConfig{URL: server.URL + "/ocr", HealthTimeout: 2})

	ok, reason := probe.Probe(context.Background())
	assert.True(t, ok)
	assert.Empty(t, reason)

	// Within the rate limit window the cached verdict is reused.
	ok, _ = probe.Probe(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 1, hits)
}

func TestDeepSeekProbe_Unhealthy(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	probe := NewDeepSeekProbe(config.DeepSeekConfig{URL: server.URL, HealthTimeout: 2})

	ok, reason := probe.Probe(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "health check failed (503)", reason)

	// The unhealthy verdict is cached just like a healthy one.
	ok, reason = probe.Probe(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "health check failed (503)", reason)
	assert.Equal(t, 1, hits)
}
