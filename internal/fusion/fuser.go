package fusion

import (
	"strings"

	"github.com/papersnap/ocr-worker/internal/engine"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
)

// Fused is the raw-text view of a batch of engine results before schema
// inference runs over it.
type Fused struct {
	RawText       string
	EnginesUsed   []string
	EngineDetails map[string]any
}

// Fuse concatenates per-engine texts into one labeled raw document. Each
// contributing engine gets a `[ENGINEID]` section; the labeling is a stable
// convention so downstream inference can see which engine asserted which span.
// Engines are recorded in EnginesUsed even when their text is empty after
// trimming. An empty batch fails with ErrNoResults; callers route that to the
// stub path instead.
func Fuse(results []engine.Result) (*Fused, error) {
	if len(results) == 0 {
		return nil, apperrors.ErrNoResults
	}

	sections := make([]string, 0, len(results))
	enginesUsed := make([]string, 0, len(results))
	details := make(map[string]any, len(results))

	for _, result := range results {
		engineID := result.EngineID
		if engineID == "" {
			engineID = "unknown"
		}
		enginesUsed = append(enginesUsed, engineID)

		text := strings.TrimSpace(result.Text)
		if text != "" {
			sections = append(sections, "["+strings.ToUpper(engineID)+"]\n"+text)
		}

		if result.Meta != nil {
			details[engineID] = result.Meta
		}
	}

	return &Fused{
		RawText:       strings.TrimSpace(strings.Join(sections, "\n\n")),
		EnginesUsed:   enginesUsed,
		EngineDetails: details,
	}, nil
}
