// Package engine holds the OCR engine registry, availability probes, per-engine
// invokers, and the orchestration pass that collects their results.
package engine

import (
	"context"
	"strings"
)

// Engine ids. The ids are stable keys used in config, the API, and fused output.
const (
	Tesseract = "tesseract"
	Surya     = "surya"
	GCV       = "gcv"
	DeepSeek  = "deepseek"
	StubID    = "stub"
)

// Order is the fixed priority in which engines are tried when fusing. The stub
// is a last-resort fallback and never part of the ordered list.
var Order = []string{Tesseract, Surya, GCV, DeepSeek}

// Descriptor is the registry's view of one engine. Enabled reflects operator
// intent; Available reflects the last probe. Both must be true for the engine to
// run. Available==false implies Reason is set; Available==true implies it is empty.
type Descriptor struct {
	ID        string
	Name      string
	Enabled   bool
	Available bool
	Reason    string
}

// Result is one engine's normalized output. Never constructed with
// empty/whitespace-only text; invokers report that as no result instead.
type Result struct {
	EngineID string
	Text     string
	Meta     map[string]any
}

// newResult builds a Result, returning nil when the text is empty after trimming.
func newResult(engineID, text string, meta map[string]any) *Result {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &Result{EngineID: engineID, Text: text, Meta: meta}
}

// Probe determines whether an engine is currently usable. Probes never return an
// error; every failure is folded into (false, reason).
type Probe interface {
	Probe(ctx context.Context) (available bool, reason string)
}

// Invoker runs one engine against a validated file. The caller has already
// checked enabled+available. A nil result with nil error means the engine
// produced no usable output; errors are isolated by the orchestrator and never
// abort the batch.
type Invoker interface {
	Invoke(ctx context.Context, filePath string) (*Result, error)
}
