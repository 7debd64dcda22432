package fusion

import "github.com/papersnap/ocr-worker/internal/schema"

const stubNote = "Demo stub used because no primary OCR engines succeeded"

// Stub generates the fixed fallback document served when no real engine yields
// usable output and the stub is enabled. Deterministic apart from the echoed
// document id; the illustrative content mirrors what a multi-engine surgical
// note analysis would look like.
func Stub(documentID string) *Document {
	rawText := "GoogleVision OCR: Diagnosis Perforation peritonitis; Procedure Emergency laparotomy\n" +
		"Tesseract OCR: Patient age 45; Surgeon Dr Example; Emergency laparotomy performed\n" +
		"DeepSeek OCR: Emergency laparotomy with Graham's patch for perforation peritonitis"

	fields := schema.Fields{
		"surgeryDate":   {Value: "2025-11-08", Confidence: 0.9},
		"patientAge":    {Value: 45, Confidence: 0.85},
		"patientSex":    {Value: "F", Confidence: 0.9},
		"diagnosis":     {Value: "Perforation peritonitis", Confidence: 0.9},
		"procedure":     {Value: "Emergency laparotomy with Graham's patch", Confidence: 0.88},
		"surgeon":       {Value: "Dr Example", Confidence: 0.7},
		"emergencyFlag": {Value: true, Confidence: 0.95},
	}

	return &Document{
		RawText:      rawText,
		SchemaType:   schema.Stub,
		ParsedFields: fields,
		OCRMeta: OCRMeta{
			EnginesUsed: []string{"stub"},
			Stub: &StubInfo{
				DocumentID: documentID,
				Note:       stubNote,
			},
		},
	}
}
