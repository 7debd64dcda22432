// Package schema classifies fused OCR text and extracts confidence-scored fields
// through an auditable ruleset of independent regex rules.
package schema

import (
	"regexp"
	"strconv"
	"strings"
)

// surgeryKeywords route a document to the surgical-note schema when any of them
// appear in the lowercased text.
var surgeryKeywords = []string{
	"diagnosis",
	"procedure",
	"surgeon",
	"laparotomy",
	"peritonitis",
	"ot note",
}

const (
	summaryMaxLen     = 480
	summaryConfidence = 0.3
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// extractionRule is one independent field extractor: a pattern, a normalization
// step over its submatches, and a fixed confidence. Rules can be added or removed
// without touching orchestration.
type extractionRule struct {
	field      string
	pattern    *regexp.Regexp
	confidence float64
	normalize  func(match []string) any
}

var surgeryRules = []extractionRule{
	{
		field: "surgeryDate",
		pattern: regexp.MustCompile(`(?i)(?:surgery date|date of surgery|dos|operation date)[:\-\s]*` +
			`([0-9]{4}[\-/][0-9]{2}[\-/][0-9]{2}|[0-9]{2}[\-/][0-9]{2}[\-/][0-9]{4})`),
		confidence: 0.85,
		normalize: func(match []string) any {
			return normalizeDate(match[1])
		},
	},
	{
		field:      "patientAge",
		pattern:    regexp.MustCompile(`(?i)(?:age|patient age)\D*([0-9]{1,3})`),
		confidence: 0.80,
		normalize: func(match []string) any {
			age, err := strconv.Atoi(match[1])
			if err != nil {
				return nil
			}
			return age
		},
	},
	{
		field:      "patientSex",
		pattern:    regexp.MustCompile(`(?i)(?:sex|gender)[:\-\s]*(male|female|[MF])\b`),
		confidence: 0.75,
		normalize: func(match []string) any {
			value := strings.ToUpper(match[1])
			if value == "MALE" || value == "FEMALE" {
				value = value[:1]
			}
			return value
		},
	},
	{
		field:      "diagnosis",
		pattern:    regexp.MustCompile(`(?i)diagnosis[:\-\s]*([^\n]+)`),
		confidence: 0.90,
		normalize:  normalizedLine,
	},
	{
		field:      "procedure",
		pattern:    regexp.MustCompile(`(?i)procedure[:\-\s]*([^\n]+)`),
		confidence: 0.88,
		normalize:  normalizedLine,
	},
	{
		field:      "surgeon",
		pattern:    regexp.MustCompile(`(?i)surgeon[:\-\s]*([^\n]+)`),
		confidence: 0.70,
		normalize:  normalizedLine,
	},
}

// Infer classifies raw text into a schema type and extracts its fields.
// Text containing any surgical keyword gets the surgery-note extractor; everything
// else gets a single truncated summary field.
func Infer(rawText string) (string, Fields) {
	lower := strings.ToLower(rawText)
	for _, keyword := range surgeryKeywords {
		if strings.Contains(lower, keyword) {
			return SurgeryNote, parseSurgeryFields(rawText, lower)
		}
	}
	return Generic, genericFields(rawText)
}

func parseSurgeryFields(rawText, lower string) Fields {
	fields := Fields{}

	for _, rule := range surgeryRules {
		match := rule.pattern.FindStringSubmatch(rawText)
		if match == nil {
			continue
		}
		value := rule.normalize(match)
		if value == nil {
			continue
		}
		fields[rule.field] = Field{Value: value, Confidence: rule.confidence}
	}

	if strings.Contains(lower, "emergency") {
		fields["emergencyFlag"] = Field{Value: true, Confidence: 0.90}
	}

	return fields
}

func genericFields(rawText string) Fields {
	summary := NormalizeWhitespace(rawText)
	// Truncate on runes, not bytes; a byte cut can split a multi-byte character.
	if runes := []rune(summary); len(runes) > summaryMaxLen {
		summary = string(runes[:summaryMaxLen]) + "..."
	}
	return Fields{"summary": {Value: summary, Confidence: summaryConfidence}}
}

// normalizeDate unifies separators and reorders DD-MM-YYYY to YYYY-MM-DD. The
// reorder is a plain string split; calendar validity is not checked.
func normalizeDate(raw string) string {
	value := strings.ReplaceAll(raw, "/", "-")
	parts := strings.Split(value, "-")
	if len(parts) == 3 && len(parts[0]) == 2 {
		value = parts[2] + "-" + parts[1] + "-" + parts[0]
	}
	return value
}

func normalizedLine(match []string) any {
	return NormalizeWhitespace(match[1])
}

// NormalizeWhitespace collapses runs of whitespace to single spaces and trims.
func NormalizeWhitespace(value string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))
}
