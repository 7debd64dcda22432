package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersnap/ocr-worker/internal/engine"
	apperrors "github.com/papersnap/ocr-worker/internal/errors"
	"github.com/papersnap/ocr-worker/internal/schema"
)

func TestFuse_LabeledSections(t *testing.T) {
	results := []engine.Result{
		{EngineID: "a", Text: "Hello"},
		{EngineID: "b", Text: "World"},
	}

	fused, err := Fuse(results)
	require.NoError(t, err)

	assert.Equal(t, "[A]\nHello\n\n[B]\nWorld", fused.RawText)
	assert.Equal(t, []string{"a", "b"}, fused.EnginesUsed)
}

func TestFuse_EmptyBatch(t *testing.T) {
	fused, err := Fuse(nil)

	assert.Nil(t, fused)
	assert.ErrorIs(t, err, apperrors.ErrNoResults)
}

func TestFuse_WhitespaceTextRecordedWithoutSection(t *testing.T) {
	results := []engine.Result{
		{EngineID: "tesseract", Text: "Findings: clear"},
		{EngineID: "surya", Text: "   \n\t"},
	}

	fused, err := Fuse(results)
	require.NoError(t, err)

	assert.Equal(t, "[TESSERACT]\nFindings: clear", fused.RawText)
	assert.Equal(t, []string{"tesseract", "surya"}, fused.EnginesUsed)
}

func TestFuse_CollectsMeta(t *testing.T) {
	results := []engine.Result{
		{EngineID: "gcv", Text: "page one", Meta: map[string]any{"pages": 1}},
		{EngineID: "deepseek", Text: "page one"},
	}

	fused, err := Fuse(results)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"pages": 1}, fused.EngineDetails["gcv"])
	assert.NotContains(t, fused.EngineDetails, "deepseek")
}

func TestStub_Deterministic(t *testing.T) {
	first := Stub("doc-123")
	second := Stub("doc-123")

	assert.Equal(t, first, second)
	assert.Equal(t, schema.Stub, first.SchemaType)
	assert.Equal(t, []string{"stub"}, first.OCRMeta.EnginesUsed)

	require.NotNil(t, first.OCRMeta.Stub)
	assert.Equal(t, "doc-123", first.OCRMeta.Stub.DocumentID)
	assert.NotEmpty(t, first.OCRMeta.Stub.Note)
	assert.Contains(t, first.ParsedFields, "emergencyFlag")
}

func TestStub_EchoesDocumentID(t *testing.T) {
	doc := Stub("surgical-note-7")
	assert.Equal(t, "surgical-note-7", doc.OCRMeta.Stub.DocumentID)
}
