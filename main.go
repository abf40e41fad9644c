package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	// SQL drivers selectable through DATABASE_DRIVER.
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/datachat-poc/server/internal/agent/graph"
	"github.com/datachat-poc/server/internal/agent/model"
	"github.com/datachat-poc/server/internal/agent/repo"
	"github.com/datachat-poc/server/internal/chart"
	"github.com/datachat-poc/server/internal/core"
	"github.com/datachat-poc/server/internal/datasource"
	logx "github.com/datachat-poc/server/pkg/logger"
	pkgredis "github.com/datachat-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the chat example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Runtime
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis    pkgredis.Config
	Database datasource.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Decision     model.DecisionModelConfig
	Response     model.ResponseModelConfig
	ChatFlow     model.ChatFlowConfig
	Conversation model.ConversationConfig
	Chart        model.ChartConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.Opts{
		Environment: core.ParseEnvironment(envCfg.Environment),
		Level:       envCfg.LogLevel,
	})

	rdb, err := envCfg.Redis.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	db, err := envCfg.Database.Open(ctx)
	if err != nil {
		log.Fatalf("Failed to open datasource: %v", err)
	}
	defer db.Close()
	source := datasource.NewSQLSource(db)

	renderer, err := chart.NewRenderer(source, chart.Options{
		Width:    envCfg.Chart.Width,
		Height:   envCfg.Chart.Height,
		FontPath: envCfg.Chart.FontPath,
	})
	if err != nil {
		log.Fatalf("Failed to build chart renderer: %v", err)
	}

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}
	conversationRepo := repo.NewRedisConversationRepository(rdb, ttl)

	runner, err := graph.BuildChatGraph(ctx, graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		DecisionModel:    envCfg.Decision,
		ResponseModel:    envCfg.Response,
		ChatFlow:         envCfg.ChatFlow,
		ConversationRepo: conversationRepo,
		Datasource:       source,
		Renderer:         renderer,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	conversationID := uuid.NewString()
	if err := conversationRepo.ClearHistory(ctx, conversationID); err != nil {
		log.Printf("Warning: could not clear conversation history: %v", err)
	}

	questions := []struct {
		description string
		question    string
	}{
		{
			description: "Schema discovery without a chart",
			question:    "Which tables do I have and what columns are in them?",
		},
		{
			description: "Chart request",
			question:    "Show me a bar chart of total sales by product category.",
		},
		{
			description: "Follow-up reusing context",
			question:    "Now show the same data as a pie chart.",
		},
	}

	for i, q := range questions {
		fmt.Printf("\nTurn %d: %s\n", i+1, q.description)
		fmt.Printf("Question: %q\n", q.question)

		result, err := runner.Invoke(ctx, model.ChatInput{
			ConversationID: conversationID,
			Question:       q.question,
		})
		if err != nil {
			log.Fatalf("Turn %d failed: %v", i+1, err)
		}

		fmt.Printf("Answer: %s\n", displayContent(result.FinalContent()))

		// slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	if count, err := conversationRepo.GetMessageCount(ctx, conversationID); err == nil {
		fmt.Printf("\nStored messages in conversation %s: %d\n", conversationID, count)
	}
}

// displayContent keeps the demo output readable when the answer is an image.
func displayContent(content string) string {
	if strings.HasPrefix(content, chart.ImageDataURIPrefix) {
		return fmt.Sprintf("[chart image, %d bytes of PNG data URI]", len(content))
	}
	if len(content) > 600 {
		return content[:600] + "..."
	}
	return content
}
