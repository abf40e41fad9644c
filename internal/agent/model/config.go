package model

// ChatFlowConfig bounds the chart loop.
type ChatFlowConfig struct {
	MaxIterations    int      `envconfig:"CHAT_MAX_ITERATIONS" default:"5"`
	ErrorStreakLimit int      `envconfig:"CHAT_ERROR_STREAK_LIMIT" default:"3"`
	ErrorSignatures  []string `envconfig:"CHAT_ERROR_SIGNATURES" default:"ProgrammingError,Unknown column"`
	HistoryTurns     int      `envconfig:"CHAT_HISTORY_TURNS" default:"5"`
}

// DecisionModelConfig configures the chart-need classification call.
type DecisionModelConfig struct {
	Model       string  `envconfig:"DECISION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"DECISION_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"DECISION_TEMPERATURE" default:"0"`
}

// ResponseModelConfig configures the tool-calling response model.
type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.3"`
}

// ConversationConfig controls history retention.
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
}

// ChartConfig tunes the rendered canvas.
type ChartConfig struct {
	Width    int    `envconfig:"CHART_WIDTH" default:"1000"`
	Height   int    `envconfig:"CHART_HEIGHT" default:"600"`
	FontPath string `envconfig:"CHART_FONT" default:""`
}
