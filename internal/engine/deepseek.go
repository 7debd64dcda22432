package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/config"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/normalize"
)

// DeepSeekInvoker is the remote-HTTP variant: it uploads the file as multipart
// form data and expects a JSON body with the text under one of the accepted key
// names. Submissions go through a circuit breaker so a flapping remote stops
// being called for a while instead of eating the submit timeout on every request.
type DeepSeekInvoker struct {
	cfg     config.DeepSeekConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[map[string]any]
	logger  *zap.Logger
}

func NewDeepSeekInvoker(cfg config.DeepSeekConfig, logger *zap.Logger) *DeepSeekInvoker {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker[map[string]any](gobreaker.Settings{
		Name:        "deepseek-ocr",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
	})

	return &DeepSeekInvoker{
		cfg:     cfg,
		client:  &http.Client{Timeout: time.Duration(cfg.SubmitTimeout) * time.Second},
		breaker: breaker,
		logger:  logger,
	}
}

func (d *DeepSeekInvoker) Invoke(ctx context.Context, filePath string) (*Result, error) {
	if d.cfg.URL == "" {
		return nil, nil
	}

	payload, err := d.breaker.Execute(func() (map[string]any, error) {
		return d.submit(ctx, filePath)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvocationFailed.Code, "deepseek OCR failed")
	}

	text := normalize.ExtractText(payload)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		meta[k] = v
	}
	return newResult(DeepSeek, text, meta), nil
}

func (d *DeepSeekInvoker) submit(ctx context.Context, filePath string) (map[string]any, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(d.cfg.URL, "/"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("deepseek returned status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed deepseek response: %w", err)
	}
	return payload, nil
}
