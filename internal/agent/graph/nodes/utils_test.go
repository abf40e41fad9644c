package nodes

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/datachat-poc/server/internal/agent/model"
	"github.com/datachat-poc/server/internal/chart"
)

func assistant(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

func TestNextAfterModel_IterationCeiling(t *testing.T) {
	state := &model.ChatState{
		Iterations: 5,
		Messages:   []*schema.Message{assistant("still thinking")},
	}
	assert.Equal(t, NodeFinalize, nextAfterModel(state, 5, 3, nil))
}

func TestNextAfterModel_EmptyTranscript(t *testing.T) {
	state := &model.ChatState{Iterations: 1}
	assert.Equal(t, NodeToolExec, nextAfterModel(state, 5, 3, nil))
}

func TestNextAfterModel_ErrorStreakTerminates(t *testing.T) {
	signatures := []string{"ProgrammingError", "Unknown column"}
	state := &model.ChatState{Iterations: 1}

	state.Messages = []*schema.Message{assistant("ProgrammingError: no such table")}
	assert.Equal(t, NodeToolExec, nextAfterModel(state, 10, 2, signatures))
	assert.Equal(t, 1, state.ErrorStreak)

	state.Messages = append(state.Messages, assistant("Unknown column 'x', retrying"))
	assert.Equal(t, NodeToolExec, nextAfterModel(state, 10, 2, signatures))
	assert.Equal(t, 2, state.ErrorStreak)

	// The limit is exceeded on the third consecutive sighting.
	state.Messages = append(state.Messages, assistant("ProgrammingError again"))
	assert.Equal(t, NodeFinalize, nextAfterModel(state, 10, 2, signatures))
	assert.Equal(t, 3, state.ErrorStreak)
}

func TestNextAfterModel_ErrorStreakResets(t *testing.T) {
	state := &model.ChatState{
		Iterations:  1,
		ErrorStreak: 2,
		Messages:    []*schema.Message{assistant("query fixed, here are the rows")},
	}
	assert.Equal(t, NodeToolExec, nextAfterModel(state, 10, 2, []string{"ProgrammingError"}))
	assert.Zero(t, state.ErrorStreak)
}

func TestNextAfterModel_FinishedImage(t *testing.T) {
	state := &model.ChatState{
		Iterations: 1,
		Messages:   []*schema.Message{assistant(chart.ImageDataURIPrefix + "Zm9v")},
	}
	assert.Equal(t, NodeFinalize, nextAfterModel(state, 5, 3, nil))
}

func TestNextAfterTools(t *testing.T) {
	state := &model.ChatState{}
	assert.Equal(t, NodeChartPrompt, nextAfterTools(state))

	state.Messages = []*schema.Message{schema.ToolMessage("(food, 10)", "call_1")}
	assert.Equal(t, NodeChartPrompt, nextAfterTools(state))

	state.Messages = append(state.Messages, schema.ToolMessage(chart.ImageDataURIPrefix+"Zm9v", "call_2"))
	assert.Equal(t, NodeFinalize, nextAfterTools(state))
}

func TestNormalizeLimits(t *testing.T) {
	assert.Equal(t, DefaultMaxIterations, normalizeMaxIterations(0))
	assert.Equal(t, DefaultMaxIterations, normalizeMaxIterations(-1))
	assert.Equal(t, 7, normalizeMaxIterations(7))

	assert.Equal(t, DefaultErrorStreakLimit, normalizeErrorStreakLimit(0))
	assert.Equal(t, 2, normalizeErrorStreakLimit(2))
}

func TestContainsErrorSignature(t *testing.T) {
	sigs := []string{"ProgrammingError", "", "Unknown column"}
	assert.True(t, containsErrorSignature("a ProgrammingError happened", sigs))
	assert.True(t, containsErrorSignature("Unknown column 'x'", sigs))
	assert.False(t, containsErrorSignature("everything fine", sigs))
	assert.False(t, containsErrorSignature("anything", nil))
}
