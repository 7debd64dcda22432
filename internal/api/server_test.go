package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/config"
	"github.com/papersnap/ocr-worker/internal/engine"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/fusion"
	"github.com/papersnap/ocr-worker/internal/metrics"
	"github.com/papersnap/ocr-worker/internal/schema"
)

type fakeService struct {
	doc        *fusion.Document
	analyzeErr error
	toggleErr  error

	lastFilePath   string
	lastDocumentID string
	lastToggleID   string
	lastEnabled    bool
}

func (f *fakeService) Analyze(_ context.Context, filePath, documentID string) (*fusion.Document, error) {
	f.lastFilePath = filePath
	f.lastDocumentID = documentID
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.doc, nil
}

func (f *fakeService) Engines(_ context.Context, _ bool) []engine.Descriptor {
	return []engine.Descriptor{
		{ID: engine.Tesseract, Name: "Tesseract", Enabled: true, Available: true},
		{ID: engine.Surya, Name: "Surya", Enabled: true, Available: false, Reason: "surya-ocr not found in PATH"},
		{ID: engine.StubID, Name: "Stub", Enabled: true, Available: true},
	}
}

func (f *fakeService) SetEngineEnabled(_ context.Context, id string, enabled bool) ([]engine.Descriptor, error) {
	f.lastToggleID = id
	f.lastEnabled = enabled
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return f.Engines(context.Background(), false), nil
}

func newTestServer(t *testing.T, service *fakeService) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.ReadTimeout = 5
	cfg.Server.WriteTimeout = 5
	return New(cfg, service, metrics.New(), zap.NewNop())
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t, &fakeService{})

	resp, err := server.App().Test(jsonRequest(t, http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "ok", payload["status"])
	assert.Len(t, payload["engines"], 3)
}

func TestHandleListEngines_ReasonOnlyWhenUnavailable(t *testing.T) {
	server := newTestServer(t, &fakeService{})

	resp, err := server.App().Test(jsonRequest(t, http.MethodGet, "/api/engines", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	engines, ok := payload["engines"].([]any)
	require.True(t, ok)
	require.Len(t, engines, 3)

	first := engines[0].(map[string]any)
	assert.Equal(t, "tesseract", first["id"])
	assert.Nil(t, first["reason"])

	second := engines[1].(map[string]any)
	assert.Equal(t, "surya", second["id"])
	assert.Equal(t, "surya-ocr not found in PATH", second["reason"])
}

func TestHandleToggleEngine(t *testing.T) {
	service := &fakeService{}
	server := newTestServer(t, service)

	resp, err := server.App().Test(jsonRequest(t, http.MethodPost, "/api/engines/tesseract", ToggleRequest{Enabled: false}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "tesseract", service.lastToggleID)
	assert.False(t, service.lastEnabled)
}

func TestHandleToggleEngine_NotFound(t *testing.T) {
	service := &fakeService{toggleErr: apperrors.ErrEngineNotFound}
	server := newTestServer(t, service)

	resp, err := server.App().Test(jsonRequest(t, http.MethodPost, "/api/engines/chandra", ToggleRequest{Enabled: true}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "Engine not found", payload["error"])
}

func TestHandleAnalyze(t *testing.T) {
	service := &fakeService{
		doc: &fusion.Document{
			RawText:    "[TESSERACT]\nDiagnosis: Perforation peritonitis",
			SchemaType: schema.SurgeryNote,
			ParsedFields: schema.Fields{
				"diagnosis": {Value: "Perforation peritonitis", Confidence: 0.9},
			},
			OCRMeta: fusion.OCRMeta{EnginesUsed: []string{"tesseract"}},
		},
	}
	server := newTestServer(t, service)

	body := AnalyzeRequest{FilePath: "/tmp/note.png", DocumentID: "doc-1"}
	resp, err := server.App().Test(jsonRequest(t, http.MethodPost, "/api/analyze", body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "/tmp/note.png", service.lastFilePath)
	assert.Equal(t, "doc-1", service.lastDocumentID)

	payload := decodeBody(t, resp)
	assert.Equal(t, schema.SurgeryNote, payload["schemaType"])
	assert.Contains(t, payload, "parsedFields")
	assert.Contains(t, payload, "ocrMeta")
}

func TestHandleAnalyze_MissingFilePath(t *testing.T) {
	server := newTestServer(t, &fakeService{})

	resp, err := server.App().Test(jsonRequest(t, http.MethodPost, "/api/analyze", AnalyzeRequest{}))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "file_path is required", payload["error"])
}

func TestHandleAnalyze_BadInput(t *testing.T) {
	service := &fakeService{analyzeErr: apperrors.ErrBadInput}
	server := newTestServer(t, service)

	body := AnalyzeRequest{FilePath: "/nope.png"}
	resp, err := server.App().Test(jsonRequest(t, http.MethodPost, "/api/analyze", body))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "file_path does not exist or is not a file", payload["error"])
}

func TestHandleAnalyze_NoEngines(t *testing.T) {
	service := &fakeService{analyzeErr: apperrors.ErrNoEngines}
	server := newTestServer(t, service)

	body := AnalyzeRequest{FilePath: "/tmp/note.png"}
	resp, err := server.App().Test(jsonRequest(t, http.MethodPost, "/api/analyze", body))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "No OCR engines available", payload["error"])
}

func TestMetricsJSON(t *testing.T) {
	server := newTestServer(t, &fakeService{})

	resp, err := server.App().Test(jsonRequest(t, http.MethodGet, "/api/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Contains(t, payload, "requests_total")
	assert.Contains(t, payload, "uptime_seconds")
}

func TestPrometheusEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeService{})

	resp, err := server.App().Test(jsonRequest(t, http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
