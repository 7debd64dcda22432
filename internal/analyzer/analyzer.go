// Package analyzer drives a full document analysis: path validation, engine
// orchestration, fusion, schema inference, and the stub fallback.
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/engine"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/fusion"
	"github.com/papersnap/ocr-worker/internal/metrics"
	"github.com/papersnap/ocr-worker/internal/schema"
)

type Analyzer struct {
	registry     *engine.Registry
	orchestrator *engine.Orchestrator
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

func New(registry *engine.Registry, orchestrator *engine.Orchestrator, logger *zap.Logger, m *metrics.Metrics) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		registry:     registry,
		orchestrator: orchestrator,
		logger:       logger,
		metrics:      m,
	}
}

// Analyze runs the full pipeline for one file. The caller always receives either
// a well-formed fused/stub document or one categorized failure, never a partial
// document. documentID is opaque: echoed back, never interpreted.
func (a *Analyzer) Analyze(ctx context.Context, filePath, documentID string) (*fusion.Document, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := a.logger.With(zap.String("request_id", requestID))

	resolved, err := resolvePath(filePath)
	if err != nil {
		a.metrics.RecordAnalyze(metrics.OutcomeRejected, time.Since(start))
		return nil, apperrors.Wrap(err, apperrors.ErrBadInput.Code,
			"file_path does not exist or is not a regular file")
	}

	a.registry.Refresh(ctx)

	results := a.orchestrator.Collect(ctx, resolved)
	if ctx.Err() != nil {
		// No partial fused output for a cancelled request.
		a.metrics.RecordAnalyze(metrics.OutcomeFailed, time.Since(start))
		return nil, ctx.Err()
	}

	if len(results) == 0 {
		if desc, ok := a.registry.Get(engine.StubID); ok && desc.Enabled {
			log.Info("falling back to stub OCR",
				zap.String("document_id", documentID),
				zap.String("file", resolved),
			)
			a.metrics.RecordStubFallback()
			a.metrics.RecordAnalyze(metrics.OutcomeStub, time.Since(start))
			return fusion.Stub(documentID), nil
		}
		a.metrics.RecordAnalyze(metrics.OutcomeFailed, time.Since(start))
		return nil, apperrors.ErrNoEngines
	}

	fused, err := fusion.Fuse(results)
	if err != nil {
		a.metrics.RecordAnalyze(metrics.OutcomeFailed, time.Since(start))
		return nil, err
	}

	schemaType, fields := schema.Infer(fused.RawText)
	var parsed schema.Fields
	if len(fields) > 0 {
		parsed = fields
	}

	log.Info("analysis complete",
		zap.String("schema", schemaType),
		zap.Strings("engines", fused.EnginesUsed),
		zap.Int("fields", len(fields)),
		zap.Duration("duration", time.Since(start)),
	)
	a.metrics.RecordAnalyze(metrics.OutcomeFused, time.Since(start))

	return &fusion.Document{
		RawText:      fused.RawText,
		SchemaType:   schemaType,
		ParsedFields: parsed,
		OCRMeta: fusion.OCRMeta{
			EnginesUsed:   fused.EnginesUsed,
			EngineDetails: fused.EngineDetails,
		},
	}, nil
}

// Engines lists the engine descriptors, optionally re-probing availability first.
func (a *Analyzer) Engines(ctx context.Context, refresh bool) []engine.Descriptor {
	if refresh {
		a.registry.Refresh(ctx)
	}
	return a.registry.List()
}

// SetEngineEnabled toggles one engine and returns the updated listing.
func (a *Analyzer) SetEngineEnabled(ctx context.Context, id string, enabled bool) ([]engine.Descriptor, error) {
	return a.registry.SetEnabled(ctx, id, enabled)
}

// resolvePath expands a leading ~, makes the path absolute, and verifies it
// points at an existing regular file.
func resolvePath(path string) (string, error) {
	if path == "" {
		return "", os.ErrNotExist
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", os.ErrInvalid
	}
	return abs, nil
}
