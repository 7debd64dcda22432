package schema

// Schema type markers carried on every analyzed document.
const (
	SurgeryNote = "surgery_note_v1"
	Generic     = "generic_v1"
	Stub        = "demo_stub_v1"
)

// Field is one extracted value with the fixed heuristic weight of the rule that
// produced it. Confidence is a design constant, not a measured probability.
type Field struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Fields maps field names to extracted values. Non-matching fields are absent,
// never null-valued.
type Fields map[string]Field
