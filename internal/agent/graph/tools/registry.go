package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	logx "github.com/datachat-poc/server/pkg/logger"
)

// Result is the uniform outcome of a tool handler. Exactly one of the three
// forms is expected: a rendered image, a failure description, or plain text.
type Result struct {
	Image   string // data URI of a rendered chart
	Message string // success note accompanying an image, not part of the content
	Error   string // failure description
	Text    string // plain text payload
}

// Content renders the result as tool-message content. An image wins over an
// error, an error over text. The routing layer depends on image content being
// the bare data URI.
func (r Result) Content() string {
	switch {
	case r.Image != "":
		return r.Image
	case r.Error != "":
		return "chart generation failed: " + r.Error
	default:
		return r.Text
	}
}

// ImageResult wraps a rendered chart.
func ImageResult(dataURI, message string) Result {
	return Result{Image: dataURI, Message: message}
}

// ErrorResult wraps a failure description.
func ErrorResult(message string) Result {
	return Result{Error: message}
}

// Errorf wraps a formatted failure description.
func Errorf(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// TextResult wraps a plain text payload.
func TextResult(text string) Result {
	return Result{Text: text}
}

// Textf wraps a formatted text payload.
func Textf(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...)}
}

// Handler is one callable tool.
type Handler interface {
	// Info describes the tool for model binding.
	Info() *schema.ToolInfo

	// Call executes the tool. Failures are reported through the Result, never
	// as a Go error, so a bad tool call can never abort the conversation.
	Call(ctx context.Context, args map[string]any) Result
}

// Registry maps tool names to handlers, preserving registration order for
// deterministic model binding.
type Registry struct {
	order  []string
	byName map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Handler)}
}

// Register adds a handler, replacing any previous one with the same name.
func (r *Registry) Register(h Handler) {
	name := h.Info().Name
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = h
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Infos returns the tool descriptions in registration order.
func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Info())
	}
	return out
}

// decodeArgs maps loosely typed tool arguments onto a typed input struct via
// a JSON round trip, tolerating extra keys the model may invent.
func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// ExecuteCalls dispatches every tool call of an assistant turn and returns
// one tool message per executed call, tagged with the originating call id.
// Unknown tools are logged and skipped without failing the batch. An empty or
// absent call list yields an empty batch.
func ExecuteCalls(ctx context.Context, reg *Registry, calls []schema.ToolCall) []*schema.Message {
	var out []*schema.Message
	for _, call := range calls {
		name := call.Function.Name
		h, ok := reg.Lookup(name)
		if !ok {
			logx.Warn().Str("tool", name).Msg("model requested unknown tool, skipping")
			continue
		}

		args := map[string]any{}
		if raw := call.Function.Arguments; raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				logx.Warn().Err(err).Str("tool", name).Msg("tool arguments are not valid JSON")
				out = append(out, schema.ToolMessage(
					fmt.Sprintf("tool '%s' received invalid arguments: %v", name, err), call.ID))
				continue
			}
		}

		result := h.Call(ctx, args)
		content := result.Content()
		logx.Debug().
			Str("tool", name).
			Str("tool_call_id", call.ID).
			Bool("image", result.Image != "").
			Bool("error", result.Error != "").
			Msg("tool executed")

		out = append(out, schema.ToolMessage(content, call.ID))
	}
	return out
}
