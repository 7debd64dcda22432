// Package fusion combines per-engine OCR results into one labeled raw document
// and builds the final output contract.
package fusion

import "github.com/papersnap/ocr-worker/internal/schema"

// Document is the final per-request output. Built once, immutable, no persistence.
type Document struct {
	RawText      string        `json:"rawText"`
	SchemaType   string        `json:"schemaType"`
	ParsedFields schema.Fields `json:"parsedFields"`
	OCRMeta      OCRMeta       `json:"ocrMeta"`
}

// OCRMeta records which engines contributed and their per-engine metadata.
type OCRMeta struct {
	EnginesUsed   []string       `json:"enginesUsed"`
	EngineDetails map[string]any `json:"engineDetails,omitempty"`
	Stub          *StubInfo      `json:"stub,omitempty"`
}

// StubInfo marks a document produced by the fallback generator.
type StubInfo struct {
	DocumentID string `json:"documentId"`
	Note       string `json:"note"`
}
