package review

import (
	"encoding/json"
	"strings"

	"github.com/fairwind/fcr/internal/models"
)

// ParseRaw parses the raw backend payload as a JSON object. Markdown fencing
// is stripped first since models add it despite instructions. A payload that
// is not valid JSON yields an UpstreamFormatError.
func ParseRaw(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &models.UpstreamFormatError{Raw: raw, Err: err}
	}
	return obj, nil
}

// Normalize coerces an arbitrary upstream object into the fixed response
// shape. It never fails: riskScore passes through only if numeric, summary
// and modelNote default to empty text, issues defaults to an empty sequence.
// This is the last line of defense against a misbehaving backend.
func Normalize(obj map[string]any) *Response {
	resp := &Response{Issues: []Issue{}}
	if obj == nil {
		return resp
	}

	if n, ok := toInt(obj["riskScore"]); ok {
		resp.RiskScore = &n
	}
	resp.Summary = toString(obj["summary"])
	resp.ModelNote = toString(obj["modelNote"])

	items, ok := obj["issues"].([]any)
	if !ok {
		return resp
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		resp.Issues = append(resp.Issues, Issue{
			Title:        toString(m["title"]),
			Level:        toString(m["level"]),
			Description:  toString(m["description"]),
			Suggestion:   toString(m["suggestion"]),
			LawReference: toString(m["lawReference"]),
		})
	}
	return resp
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

// toInt accepts the numeric types encoding/json produces plus plain ints.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}
