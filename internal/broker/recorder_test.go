package broker

import (
	"context"
	"sync"

	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/messages"
)

type recordingHook struct {
	events.Noop
	mu                sync.Mutex
	wg                *sync.WaitGroup
	userPrompts       []messages.Message[messages.UserMessage]
	assistantMessages []messages.Message[messages.AssistantMessage]
	toolCallMessages  []messages.Message[messages.ToolCallMessage]
	toolResponses     []messages.Message[messages.ToolResponse]
	errors            []error
}

func (r *recordingHook) done() {
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	r.mu.Lock()
	r.userPrompts = append(r.userPrompts, msg)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	r.mu.Lock()
	r.assistantMessages = append(r.assistantMessages, msg)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	r.mu.Lock()
	r.toolCallMessages = append(r.toolCallMessages, msg)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	r.mu.Lock()
	r.toolResponses = append(r.toolResponses, msg)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) OnError(_ context.Context, err error) {
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) assistantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assistantMessages)
}
