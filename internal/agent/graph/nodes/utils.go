package nodes

import (
	"strings"

	"github.com/datachat-poc/server/internal/agent/model"
	"github.com/datachat-poc/server/internal/chart"
)

const (
	DefaultMaxIterations    = 5
	DefaultErrorStreakLimit = 3
)

// ===== Small helpers to keep handlers simple/readable =====

// normalizeMaxIterations returns a sane default when the provided value is invalid.
func normalizeMaxIterations(n int) int {
	if n <= 0 {
		return DefaultMaxIterations
	}
	return n
}

// normalizeErrorStreakLimit returns a sane default when the provided value is invalid.
func normalizeErrorStreakLimit(n int) int {
	if n <= 0 {
		return DefaultErrorStreakLimit
	}
	return n
}

// containsErrorSignature reports whether content carries one of the
// configured database-failure markers.
func containsErrorSignature(content string, signatures []string) bool {
	for _, sig := range signatures {
		if sig != "" && strings.Contains(content, sig) {
			return true
		}
	}
	return false
}

// nextAfterModel decides where the chart loop goes after a model turn. The
// checks run in a fixed order: iteration ceiling, empty transcript, error
// streak, finished image. The error streak is advanced here, exactly once per
// model turn.
func nextAfterModel(state *model.ChatState, maxIterations, streakLimit int, signatures []string) string {
	if state.Iterations >= maxIterations {
		return NodeFinalize
	}

	msgs := state.Messages
	if len(msgs) == 0 {
		return NodeToolExec
	}
	last := msgs[len(msgs)-1]

	if last != nil && containsErrorSignature(last.Content, signatures) {
		state.ErrorStreak++
	} else {
		state.ErrorStreak = 0
	}
	if state.ErrorStreak > streakLimit {
		return NodeFinalize
	}

	if last != nil && strings.HasPrefix(last.Content, chart.ImageDataURIPrefix) {
		return NodeFinalize
	}

	return NodeToolExec
}

// nextAfterTools decides whether tool output ends the loop. A finished image
// terminates; anything else goes back for another model turn.
func nextAfterTools(state *model.ChatState) string {
	msgs := state.Messages
	if len(msgs) == 0 {
		return NodeChartPrompt
	}
	last := msgs[len(msgs)-1]
	if last != nil && strings.HasPrefix(last.Content, chart.ImageDataURIPrefix) {
		return NodeFinalize
	}
	return NodeChartPrompt
}
