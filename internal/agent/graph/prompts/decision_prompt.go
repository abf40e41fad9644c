package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/decision_prompt.txt
var decisionSystemPrompt string

// RenderDecisionMessages renders the chart-need classification prompt via the
// Eino prompt component. This triggers Prompt callbacks and returns the
// messages for the decision model.
func RenderDecisionMessages(ctx context.Context, question string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(decisionSystemPrompt),
		schema.UserMessage("Return only the JSON object with needs_chart."),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("decision prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("decision prompt render: empty result")
	}
	return msgs, nil
}
