package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/executor"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/fatih/color"
)

// Trace returns a hook that narrates a run on w: the query, every tool call
// with its arguments, every tool result and the final reply.
func Trace(w io.Writer) events.Hook {
	return &traceHook{w: w}
}

type traceHook struct {
	mu        sync.Mutex
	w         io.Writer
	streaming bool
}

func (h *traceHook) printf(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.w, format, args...)
}

func (h *traceHook) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	h.printf("\n%s\n%s %s\n", color.New(color.Bold).Sprint("> Entering new research run..."),
		color.CyanString("Query:"), msg.Payload.Content)
}

func (h *traceHook) OnAssistantChunk(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streaming = true
	fmt.Fprint(h.w, msg.Payload.Content)
}

func (h *traceHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streaming {
		fmt.Fprintln(h.w)
		h.streaming = false
	}
	for _, tc := range msg.Payload.ToolCalls {
		fmt.Fprintf(h.w, "%s\n", color.YellowString("Invoking: `%s` with `%s`", tc.Name, tc.Arguments))
	}
}

func (h *traceHook) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	content := color.GreenString("%s", msg.Payload.Content)
	if msg.Payload.IsError {
		content = color.RedString("%s", msg.Payload.Content)
	}
	h.printf("%s\n\n", content)
}

func (h *traceHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streaming {
		fmt.Fprintln(h.w)
		h.streaming = false
	} else {
		fmt.Fprintln(h.w, msg.Payload.Content)
	}
	fmt.Fprintf(h.w, "\n%s\n\n", color.New(color.Bold).Sprint("> Finished run."))
}

func (h *traceHook) OnError(_ context.Context, err error) {
	// tool failures already show up as tool results
	var toolErr *executor.ToolInvocationError
	if errors.As(err, &toolErr) {
		return
	}
	h.printf("%s %v\n", color.RedString("Error:"), err)
}
