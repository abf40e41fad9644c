package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-poc/server/internal/agent/model"
)

type stubRunnable struct {
	out *model.ChatResult
	err error
}

func (s *stubRunnable) Invoke(ctx context.Context, in model.ChatInput, opts ...compose.Option) (*model.ChatResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func (s *stubRunnable) Stream(ctx context.Context, in model.ChatInput, opts ...compose.Option) (*schema.StreamReader[*model.ChatResult], error) {
	return nil, errors.New("not scripted")
}

func (s *stubRunnable) Collect(ctx context.Context, in *schema.StreamReader[model.ChatInput], opts ...compose.Option) (*model.ChatResult, error) {
	return nil, errors.New("not scripted")
}

func (s *stubRunnable) Transform(ctx context.Context, in *schema.StreamReader[model.ChatInput], opts ...compose.Option) (*schema.StreamReader[*model.ChatResult], error) {
	return nil, errors.New("not scripted")
}

func TestGraphRunner_StepCeilingBecomesReply(t *testing.T) {
	r := &graphRunner{runnable: &stubRunnable{
		err: fmt.Errorf("run aborted: %w", compose.ErrExceedMaxSteps),
	}}

	out, err := r.Invoke(context.Background(), model.ChatInput{ConversationID: "c1", Question: "plot"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, iterationLimitReply, out.FinalContent())
}

func TestGraphRunner_PropagatesOtherErrors(t *testing.T) {
	r := &graphRunner{runnable: &stubRunnable{err: errors.New("boom")}}

	out, err := r.Invoke(context.Background(), model.ChatInput{})
	assert.Nil(t, out)
	assert.EqualError(t, err, "boom")
}

func TestGraphRunner_PassesResultThrough(t *testing.T) {
	want := &model.ChatResult{Messages: []*schema.Message{schema.AssistantMessage("done", nil)}}
	r := &graphRunner{runnable: &stubRunnable{out: want}}

	out, err := r.Invoke(context.Background(), model.ChatInput{})
	require.NoError(t, err)
	assert.Same(t, want, out)
}
