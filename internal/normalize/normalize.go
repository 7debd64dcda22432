// Package normalize converts heterogeneous OCR engine outputs into plain text.
//
// Every OCR backend returns a different shape: plain strings, JSON maps, line
// slices, or typed results from an SDK. ExtractText degrades through a fixed
// resolution order instead of failing the pipeline on a shape mismatch.
package normalize

import (
	"encoding/json"
	"fmt"
)

// TextProvider is implemented by engine results that carry their text directly.
type TextProvider interface {
	Text() string
}

// MapExporter is implemented by engine results that can export themselves as a
// generic mapping.
type MapExporter interface {
	ToMap() map[string]any
}

// acceptedKeys are the mapping keys recognized as text payloads, in priority order.
var acceptedKeys = []string{"text", "raw_text", "rawText", "content"}

// ExtractText resolves an arbitrary engine output value into plain text.
// First match wins: nil, string, mapping, sequence, TextProvider, structured
// export (json.Marshaler or MapExporter), then the default string representation.
func ExtractText(output any) string {
	if output == nil {
		return ""
	}

	switch v := output.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range acceptedKeys {
			if val, ok := v[key]; ok {
				if s := stringify(val); s != "" {
					return s
				}
			}
		}
	case map[string]string:
		for _, key := range acceptedKeys {
			if s, ok := v[key]; ok && s != "" {
				return s
			}
		}
	case []string:
		return joinNonEmpty(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, stringify(item))
		}
		return joinNonEmpty(items)
	}

	if tp, ok := output.(TextProvider); ok {
		if s := tp.Text(); s != "" {
			return s
		}
	}

	if m, ok := output.(MapExporter); ok {
		if exported := m.ToMap(); exported != nil {
			return ExtractText(exported)
		}
	}

	if jm, ok := output.(json.Marshaler); ok {
		if data, err := jm.MarshalJSON(); err == nil {
			var decoded any
			if err := json.Unmarshal(data, &decoded); err == nil {
				return ExtractText(decoded)
			}
		}
	}

	if s, ok := output.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%v", output)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func joinNonEmpty(items []string) string {
	out := ""
	for _, item := range items {
		if item == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += item
	}
	return out
}
