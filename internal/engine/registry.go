package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/config"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
)

// Registry holds the process-wide engine descriptors. Descriptors are seeded once
// at startup from configuration and mutated only through Refresh and SetEnabled;
// they are re-probed, never destroyed. Refresh and toggle hold the write lock so
// a toggle and a concurrent refresh cannot interleave; List reads a snapshot.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	descriptors map[string]*Descriptor
	probes      map[string]Probe
	logger      *zap.Logger
}

// NewRegistry seeds descriptors from configuration. Availability starts false
// (except the stub) until the first Refresh.
func NewRegistry(cfg config.EnginesConfig, probes map[string]Probe, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	descriptors := map[string]*Descriptor{
		Tesseract: {ID: Tesseract, Name: "Tesseract", Enabled: cfg.Tesseract.Enabled, Reason: "not probed yet"},
		Surya:     {ID: Surya, Name: "Surya", Enabled: cfg.Surya.Enabled, Reason: "not probed yet"},
		GCV:       {ID: GCV, Name: "Google Cloud Vision", Enabled: cfg.GCV.Enabled, Reason: "not probed yet"},
		DeepSeek:  {ID: DeepSeek, Name: "DeepSeek-OCR", Enabled: cfg.DeepSeek.Enabled, Reason: "not probed yet"},
		StubID:    {ID: StubID, Name: "Stub", Enabled: cfg.AllowStub, Available: true},
	}

	order := make([]string, 0, len(Order)+1)
	order = append(order, Order...)
	order = append(order, StubID)

	return &Registry{
		order:       order,
		descriptors: descriptors,
		probes:      probes,
		logger:      logger,
	}
}

// Refresh re-runs every engine's availability probe and updates descriptors in
// place. Probe failures are recorded as unavailable+reason, never propagated.
func (r *Registry) Refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		r.probeLocked(ctx, id)
	}
}

func (r *Registry) probeLocked(ctx context.Context, id string) {
	desc := r.descriptors[id]
	probe, ok := r.probes[id]
	if desc == nil || !ok {
		return
	}
	available, reason := probe.Probe(ctx)
	desc.Available = available
	if available {
		desc.Reason = ""
	} else {
		desc.Reason = reason
		r.logger.Debug("engine unavailable",
			zap.String("engine", id),
			zap.String("reason", reason),
		)
	}
}

// List returns all descriptors in a stable order: the priority list, then the stub.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		if desc := r.descriptors[id]; desc != nil {
			out = append(out, *desc)
		}
	}
	return out
}

// Get returns a copy of one descriptor.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.descriptors[id]
	if !ok {
		return Descriptor{}, false
	}
	return *desc, true
}

// SetEnabled flips operator intent for one engine and immediately re-probes it,
// returning the updated listing. Unknown ids fail with ErrEngineNotFound.
func (r *Registry) SetEnabled(ctx context.Context, id string, enabled bool) ([]Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.descriptors[id]
	if !ok {
		return nil, apperrors.Wrap(nil, apperrors.ErrEngineNotFound.Code, "unknown engine: "+id)
	}

	if id == StubID && !enabled {
		r.logger.Warn("disabling stub OCR removes fallback coverage")
	}

	desc.Enabled = enabled
	r.probeLocked(ctx, id)

	return r.snapshotLocked(), nil
}
