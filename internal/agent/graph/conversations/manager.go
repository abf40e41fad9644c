package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/datachat-poc/server/internal/agent/model"
)

const redactedImagePlaceholder = "[base64 image omitted]"

// HistoryManager persists the user-visible turns of a conversation and
// renders the recent window as prompt context. Tool traffic and raw images
// never enter the store; only questions and final replies do.
type HistoryManager struct {
	conversationRepo model.ConversationRepository
	historyTurns     int
}

func NewHistoryManager(conversationRepo model.ConversationRepository, config model.ChatFlowConfig) *HistoryManager {
	return &HistoryManager{
		conversationRepo: conversationRepo,
		historyTurns:     config.HistoryTurns,
	}
}

// RecordQuestion appends the user's question to the conversation.
func (hm *HistoryManager) RecordQuestion(ctx context.Context, conversationID string, question string) error {
	return hm.conversationRepo.AddMessage(ctx, conversationID, schema.UserMessage(question))
}

// RecordReply appends the assistant's final reply to the conversation.
func (hm *HistoryManager) RecordReply(ctx context.Context, conversationID string, content string) error {
	return hm.conversationRepo.AddMessage(ctx, conversationID, schema.AssistantMessage(content, nil))
}

// ContextWindow renders the last stored turns as newline-joined plain text
// for prompt interpolation. Turns that carry an inline image are replaced by
// a short placeholder so the window stays within model limits.
func (hm *HistoryManager) ContextWindow(ctx context.Context, conversationID string) (string, error) {
	messages, err := hm.conversationRepo.LoadLastK(ctx, conversationID, hm.historyTurns)
	if err != nil {
		return "", err
	}

	var contextBuilder strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		if contextBuilder.Len() > 0 {
			contextBuilder.WriteString("\n")
		}
		contextBuilder.WriteString(redactImageContent(msg.Content))
	}
	return contextBuilder.String(), nil
}

// ====================== Helper function ======================

func redactImageContent(content string) string {
	if strings.Contains(content, "base64") {
		return redactedImagePlaceholder
	}
	return content
}
