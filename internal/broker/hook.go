package broker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/pkg/slogx"
)

// Hook adapts a topic to events.Hook: every observed event is published.
// Publish failures are logged and never interrupt the run.
func Hook(topic Topic) events.Hook {
	return &publishingHook{topic: topic}
}

type publishingHook struct {
	topic Topic
}

func (p *publishingHook) publish(ctx context.Context, event events.Event) {
	if err := p.topic.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event", slogx.LoggerName("broker"), slogx.Error(err))
	}
}

func (p *publishingHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	p.publish(ctx, events.RequestFromMessage(msg))
}

func (p *publishingHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	p.publish(ctx, events.ChunkFromMessage(msg))
}

func (p *publishingHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	p.publish(ctx, events.ResponseFromMessage(msg))
}

func (p *publishingHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	p.publish(ctx, events.RequestFromMessage(msg))
}

func (p *publishingHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	p.publish(ctx, events.ResponseFromMessage(msg))
}

func (p *publishingHook) OnError(ctx context.Context, err error) {
	var ev events.Error
	if !errors.As(err, &ev) {
		ev = events.Error{Err: err}
	}
	p.publish(ctx, ev)
}
