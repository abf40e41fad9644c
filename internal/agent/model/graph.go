package model

import (
	"github.com/cloudwego/eino/schema"
)

// ChatState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - A fresh ChatState is generated per Invoke, so iteration and error
//     counters never leak across turns.
type ChatState struct {
	ChatID   string
	Question string
	FileText string

	// Messages is the append-only transcript of this invocation: assistant
	// turns and tool results. The chart-decision exchange is not part of it.
	Messages []*schema.Message

	Iterations    int  // chart model visits
	ErrorStreak   int  // consecutive database-error sightings
	NeedsChart    bool // set once by the decision parser post-handler
	ToolCallIDSeq int  // local sequence to synthesize tool_call_id when provider omits

	// Accumulated total LLM cost (USD) across model invocations for this turn.
	TotalCostUSD float64
}

// ChatInput represents one user turn handed to the graph.
type ChatInput struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
	FileText       string `json:"file_text,omitempty"`
}

// ChatResult is the terminal output of one invocation.
type ChatResult struct {
	Messages []*schema.Message
}

// FinalContent returns the content of the most recent non-empty message, or
// an empty string when the turn produced none.
func (r *ChatResult) FinalContent() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i] != nil && r.Messages[i].Content != "" {
			return r.Messages[i].Content
		}
	}
	return ""
}
