package model

// ChartDecision is the structured output of the chart-need classification.
// The model is instructed to answer with exactly this JSON shape.
type ChartDecision struct {
	NeedsChart bool `json:"needs_chart"`
}
