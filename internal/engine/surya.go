package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/config"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/normalize"
)

// SuryaInvoker is the CLI-subprocess variant: it runs the surya command against
// the file and treats its standard output as the result payload.
type SuryaInvoker struct {
	cfg    config.SuryaConfig
	logger *zap.Logger
}

func NewSuryaInvoker(cfg config.SuryaConfig, logger *zap.Logger) *SuryaInvoker {
	if cfg.Binary == "" {
		cfg.Binary = "surya-ocr"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuryaInvoker{cfg: cfg, logger: logger}
}

func (s *SuryaInvoker) Invoke(ctx context.Context, filePath string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.cfg.Binary, filePath)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		stderr := strings.TrimSpace(errb.String())
		if stderr == "" {
			stderr = "surya cli failed"
		}
		return nil, apperrors.Wrap(fmt.Errorf("%s: %w", stderr, err),
			apperrors.ErrInvocationFailed.Code, "surya OCR failed")
	}

	s.logger.Debug("surya cli ok",
		zap.String("file", filePath),
		zap.Int("stdout_bytes", out.Len()),
		zap.Duration("duration", time.Since(start)),
	)

	text := normalize.ExtractText(out.String())
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	meta := map[string]any{"raw": text}
	return newResult(Surya, text, meta), nil
}
