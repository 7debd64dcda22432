package api

import "github.com/papersnap/ocr-worker/internal/engine"

// AnalyzeRequest is the analyze endpoint body. DocumentID is opaque and only
// echoed back in stub fallbacks.
type AnalyzeRequest struct {
	FilePath   string `json:"file_path"`
	DocumentID string `json:"documentId"`
}

// ToggleRequest is the engine toggle body.
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// EngineView is the wire shape of one engine descriptor.
type EngineView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Enabled   bool    `json:"enabled"`
	Available bool    `json:"available"`
	Reason    *string `json:"reason"`
}

func toEngineViews(descriptors []engine.Descriptor) []EngineView {
	views := make([]EngineView, 0, len(descriptors))
	for _, d := range descriptors {
		view := EngineView{
			ID:        d.ID,
			Name:      d.Name,
			Enabled:   d.Enabled,
			Available: d.Available,
		}
		if d.Reason != "" {
			reason := d.Reason
			view.Reason = &reason
		}
		views = append(views, view)
	}
	return views
}
