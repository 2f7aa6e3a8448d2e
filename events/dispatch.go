package events

import (
	"context"

	"github.com/IronClad1607/research-agent/messages"
)

// Dispatch delivers an event to the matching hook method. Delimiters and
// tool call chunks have no hook counterpart and are dropped. It reports
// whether the event was delivered.
func Dispatch(ctx context.Context, hook Hook, event Event) bool {
	switch e := event.(type) {
	case Request[messages.UserMessage]:
		hook.OnUserPrompt(ctx, e.ToMessage())
	case Request[messages.ToolResponse]:
		hook.OnToolCallResponse(ctx, e.ToMessage())
	case Chunk[messages.AssistantMessage]:
		hook.OnAssistantChunk(ctx, e.ToMessage())
	case Response[messages.ToolCallMessage]:
		hook.OnToolCallMessage(ctx, e.ToMessage())
	case Response[messages.AssistantMessage]:
		hook.OnAssistantMessage(ctx, e.ToMessage())
	case Error:
		hook.OnError(ctx, e)
	default:
		return false
	}
	return true
}
