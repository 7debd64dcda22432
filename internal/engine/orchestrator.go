package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/metrics"
)

// Orchestrator runs one pass over the fixed engine priority order, invoking only
// enabled+available engines and isolating individual failures. One engine's
// failure, timeout, or empty output never aborts the batch.
type Orchestrator struct {
	registry *Registry
	invokers map[string]Invoker
	order    []string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewOrchestrator(registry *Registry, invokers map[string]Invoker, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry: registry,
		invokers: invokers,
		order:    Order,
		logger:   logger,
		metrics:  m,
	}
}

// Collect invokes each runnable engine once, in priority order, and returns the
// ordered successful results (possibly empty). A cancelled request stops the
// pass; partial results for cancelled requests are discarded by the caller.
func (o *Orchestrator) Collect(ctx context.Context, filePath string) []Result {
	var results []Result

	for _, id := range o.order {
		if ctx.Err() != nil {
			o.logger.Info("orchestration cancelled", zap.String("engine", id))
			break
		}

		desc, ok := o.registry.Get(id)
		if !ok || !desc.Enabled || !desc.Available {
			o.logger.Debug("skipping engine",
				zap.String("engine", id),
				zap.Bool("enabled", desc.Enabled),
				zap.Bool("available", desc.Available),
			)
			continue
		}

		invoker, ok := o.invokers[id]
		if !ok {
			continue
		}

		start := time.Now()
		result, err := invoker.Invoke(ctx, filePath)
		if err != nil {
			o.logger.Warn("engine invocation failed",
				zap.String("engine", id),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			o.metrics.RecordEngineInvocation(id, "failed")
			continue
		}
		if result == nil || strings.TrimSpace(result.Text) == "" {
			o.logger.Info("engine produced no usable text",
				zap.String("engine", id),
				zap.Duration("duration", time.Since(start)),
			)
			o.metrics.RecordEngineInvocation(id, "empty")
			continue
		}

		o.logger.Debug("engine succeeded",
			zap.String("engine", id),
			zap.Int("text_len", len(result.Text)),
			zap.Duration("duration", time.Since(start)),
		)
		o.metrics.RecordEngineInvocation(id, "success")
		results = append(results, *result)
	}

	return results
}
