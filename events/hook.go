package events

import (
	"context"
	"log/slog"
	"slices"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/pkg/slogx"
	json "github.com/goccy/go-json"
)

// Hook observes a run.
type Hook interface {
	OnUserPrompt(context.Context, messages.Message[messages.UserMessage])

	// OnAssistantChunk receives streamed fragments of the answer.
	OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage])

	OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage])

	OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])

	OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage])

	OnError(context.Context, error)
}

// Noop ignores every event.
type Noop struct{}

func (Noop) OnUserPrompt(context.Context, messages.Message[messages.UserMessage])            {}
func (Noop) OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage])   {}
func (Noop) OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage])   {}
func (Noop) OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])     {}
func (Noop) OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage]) {}
func (Noop) OnError(context.Context, error)                                                  {}

// Logging returns a hook that writes every event to slog at debug level and
// errors at error level.
func Logging(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingHook{logger: logger.With(slogx.LoggerName("events"))}
}

type loggingHook struct {
	logger *slog.Logger
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (h *loggingHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	h.logger.DebugContext(ctx, "user prompt", slog.String("message", mustJSON(msg)))
}

func (h *loggingHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.logger.DebugContext(ctx, "assistant chunk", slog.String("content", msg.Payload.Content))
}

func (h *loggingHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.logger.DebugContext(ctx, "tool call", slog.Any("tools", msg.Payload.Names()), slog.String("message", mustJSON(msg)))
}

func (h *loggingHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	h.logger.DebugContext(ctx, "tool call response",
		slog.String("tool", msg.Payload.ToolName),
		slog.Bool("is_error", msg.Payload.IsError),
		slogx.Truncated("content", msg.Payload.Content, 200),
	)
}

func (h *loggingHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.logger.DebugContext(ctx, "assistant message", slog.String("message", mustJSON(msg)))
}

func (h *loggingHook) OnError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "run error", slogx.Error(err))
}

// Multi fans every event out to hooks in order.
func Multi(hooks ...Hook) Hook {
	return CompositeHook(slices.DeleteFunc(slices.Clone(hooks), func(h Hook) bool { return h == nil }))
}

// CompositeHook calls each hook in turn.
type CompositeHook []Hook

func (c CompositeHook) OnUserPrompt(ctx context.Context, up messages.Message[messages.UserMessage]) {
	for h := range slices.Values(c) {
		h.OnUserPrompt(ctx, up)
	}
}

func (c CompositeHook) OnAssistantChunk(ctx context.Context, ac messages.Message[messages.AssistantMessage]) {
	for h := range slices.Values(c) {
		h.OnAssistantChunk(ctx, ac)
	}
}

func (c CompositeHook) OnToolCallMessage(ctx context.Context, tm messages.Message[messages.ToolCallMessage]) {
	for h := range slices.Values(c) {
		h.OnToolCallMessage(ctx, tm)
	}
}

func (c CompositeHook) OnToolCallResponse(ctx context.Context, tr messages.Message[messages.ToolResponse]) {
	for h := range slices.Values(c) {
		h.OnToolCallResponse(ctx, tr)
	}
}

func (c CompositeHook) OnAssistantMessage(ctx context.Context, am messages.Message[messages.AssistantMessage]) {
	for h := range slices.Values(c) {
		h.OnAssistantMessage(ctx, am)
	}
}

func (c CompositeHook) OnError(ctx context.Context, err error) {
	for h := range slices.Values(c) {
		h.OnError(ctx, err)
	}
}
