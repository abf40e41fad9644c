package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/chart_prompt.txt
var chartSystemPrompt string

// RenderChartMessages renders the chart-path system prompt plus the question
// as a user message. The caller appends the accumulated loop transcript after
// these; the render happens on every loop entry so the history stays fixed
// while the transcript grows.
func RenderChartMessages(ctx context.Context, question string, historyText string, fileText string) ([]*schema.Message, error) {
	if historyText == "" {
		historyText = "(no prior conversation)"
	}
	if fileText == "" {
		fileText = "(none)"
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(chartSystemPrompt),
		schema.UserMessage("User question: {{.Question}}"),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"History":  historyText,
		"FileText": fileText,
		"Question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("chart prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("chart prompt render: empty result")
	}
	return msgs, nil
}
