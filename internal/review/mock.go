package review

import (
	"context"
	"encoding/json"
)

// MockBackend is a canned completion provider used when no real backend is
// configured. It emits a JSON payload built from the demonstration pool so
// the full parse-and-normalize path is exercised.
type MockBackend struct{}

// Complete returns a structured risk assessment for any input.
func (MockBackend) Complete(ctx context.Context, prompt string) (string, error) {
	score := 72
	payload := map[string]any{
		"riskScore": score,
		"summary":   "文件存在排除、限制竞争风险，建议按下列意见修改后出台。",
		"modelNote": "该结果由演示后端生成，仅用于流程演示，不构成正式审查意见。",
	}

	issues := make([]map[string]any, 0, 3)
	for i, tmpl := range demoPool[:3] {
		issues = append(issues, map[string]any{
			"title":        tmpl.category,
			"level":        string(riskCycle[i%len(riskCycle)]),
			"description":  tmpl.analysis,
			"suggestion":   tmpl.suggestion,
			"lawReference": tmpl.lawReference,
		})
	}
	payload["issues"] = issues

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
