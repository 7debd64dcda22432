package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/config"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/normalize"
)

// TesseractInvoker is the local-library variant: it prefers the native gosseract
// binding and shells out to the tesseract CLI when the binding errors (missing
// traineddata, unsupported input format, broken native install).
type TesseractInvoker struct {
	cfg    config.TesseractConfig
	logger *zap.Logger
}

func NewTesseractInvoker(cfg config.TesseractConfig, logger *zap.Logger) *TesseractInvoker {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TesseractInvoker{cfg: cfg, logger: logger}
}

func (t *TesseractInvoker) Invoke(ctx context.Context, filePath string) (*Result, error) {
	output, method, err := t.run(ctx, filePath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvocationFailed.Code, "tesseract OCR failed")
	}

	text := normalize.ExtractText(output)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	meta := map[string]any{
		"method":   method,
		"language": t.cfg.Language,
	}
	return newResult(Tesseract, text, meta), nil
}

func (t *TesseractInvoker) run(ctx context.Context, filePath string) (any, string, error) {
	text, libErr := t.viaLibrary(filePath)
	if libErr == nil {
		return text, "library", nil
	}

	t.logger.Debug("gosseract call failed, falling back to CLI",
		zap.String("file", filePath),
		zap.Error(libErr),
	)

	out, cliErr := t.viaCLI(ctx, filePath)
	if cliErr != nil {
		return nil, "", fmt.Errorf("library: %v; cli: %w", libErr, cliErr)
	}
	return out, "cli", nil
}

func (t *TesseractInvoker) viaLibrary(filePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return "", err
	}
	if err := client.SetImage(filePath); err != nil {
		return "", err
	}
	return client.Text()
}

func (t *TesseractInvoker) viaCLI(ctx context.Context, filePath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(t.cfg.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.cfg.Binary, filePath, "stdout", "-l", t.cfg.Language)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		stderr := strings.TrimSpace(errb.String())
		if stderr == "" {
			stderr = "tesseract cli failed"
		}
		return "", fmt.Errorf("%s: %w", stderr, err)
	}
	return out.String(), nil
}
