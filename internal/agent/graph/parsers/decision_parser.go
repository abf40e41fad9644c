package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datachat-poc/server/internal/agent/model"
)

// basic safety limits to avoid pathological inputs
const (
	maxDecisionLen = 8 * 1024 // decision payloads are a single small object
	maxErrSnippet  = 200      // limit error snippet size
)

// ParseChartDecision extracts the chart-need verdict from the decision
// model's reply. The reply must be a JSON object carrying a boolean
// "needs_chart" key; markdown code fences around it are tolerated, and so are
// extra keys the model volunteers. Anything else is an error, and the caller
// decides the fallback.
func ParseChartDecision(content string) (*model.ChartDecision, error) {
	payload := stripCodeFences(content)
	if payload == "" {
		return nil, fmt.Errorf("decision response is empty")
	}
	if len(payload) > maxDecisionLen {
		return nil, fmt.Errorf("decision response too large (%d bytes)", len(payload))
	}

	var raw struct {
		NeedsChart *bool `json:"needs_chart"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decision response is not valid JSON: %w: %s", err, safeSnippet(payload))
	}
	if raw.NeedsChart == nil {
		return nil, fmt.Errorf("decision response is missing the 'needs_chart' key: %s", safeSnippet(payload))
	}

	return &model.ChartDecision{NeedsChart: *raw.NeedsChart}, nil
}

// --- helpers ---

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
