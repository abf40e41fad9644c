package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/generic_prompt.txt
var genericSystemPrompt string

// RenderGenericMessages renders the no-chart fallback prompt: a single model
// turn restricted to the read-only database tools.
func RenderGenericMessages(ctx context.Context, question string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(genericSystemPrompt),
		schema.UserMessage("{{.Question}}"),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("generic prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("generic prompt render: empty result")
	}
	return msgs, nil
}
