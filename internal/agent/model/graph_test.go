package model_test

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/datachat-poc/server/internal/agent/model"
)

func TestChatResult_FinalContent(t *testing.T) {
	result := &model.ChatResult{Messages: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1"}}),
		schema.ToolMessage("(a, 1)", "call_1"),
		schema.AssistantMessage("final answer", nil),
	}}
	assert.Equal(t, "final answer", result.FinalContent())
}

func TestChatResult_FinalContent_SkipsEmptyTail(t *testing.T) {
	result := &model.ChatResult{Messages: []*schema.Message{
		schema.AssistantMessage("kept answer", nil),
		nil,
		schema.AssistantMessage("", nil),
	}}
	assert.Equal(t, "kept answer", result.FinalContent())
}

func TestChatResult_FinalContent_Empty(t *testing.T) {
	assert.Empty(t, (&model.ChatResult{}).FinalContent())
}
