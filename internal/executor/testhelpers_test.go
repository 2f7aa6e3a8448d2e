package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IronClad1607/research-agent/agent"
	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/shorttermmemory"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/provider"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays one list of events per call. The last list is
// repeated once the script runs out.
type scriptedProvider struct {
	mu       sync.Mutex
	turns    [][]provider.StreamEvent
	err      error
	streamCh chan provider.StreamEvent
	params   []provider.CompletionParams
}

func (p *scriptedProvider) ChatCompletion(_ context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.params = append(p.params, params)
	if p.err != nil {
		return nil, p.err
	}
	if p.streamCh != nil {
		return p.streamCh, nil
	}

	idx := min(len(p.params)-1, len(p.turns)-1)
	turn := p.turns[idx]
	ch := make(chan provider.StreamEvent, len(turn))
	for _, ev := range turn {
		ch <- retarget(ev, params)
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) calls() []provider.CompletionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// retarget stamps responses with the ids of the request.
func retarget(ev provider.StreamEvent, params provider.CompletionParams) provider.StreamEvent {
	switch e := ev.(type) {
	case provider.Response[messages.AssistantMessage]:
		e.RunID, e.TurnID = params.RunID, params.TurnID
		return e
	case provider.Response[messages.ToolCallMessage]:
		e.RunID, e.TurnID = params.RunID, params.TurnID
		return e
	case provider.Error:
		e.RunID, e.TurnID = params.RunID, params.TurnID
		return e
	}
	return ev
}

type fakeModel struct {
	provider provider.Provider
}

func (m *fakeModel) Name() string                { return "fake-model" }
func (m *fakeModel) Provider() provider.Provider { return m.provider }

func answer(content string, tokens int64) provider.StreamEvent {
	return provider.Response[messages.AssistantMessage]{
		Response: messages.AssistantMessage{Content: content},
		Usage:    shorttermmemory.Usage{PromptTokens: tokens, CompletionTokens: tokens, TotalTokens: 2 * tokens},
	}
}

func toolCalls(tokens int64, calls ...messages.ToolCallData) provider.StreamEvent {
	return provider.Response[messages.ToolCallMessage]{
		Response: messages.ToolCallMessage{ToolCalls: calls},
		Usage:    shorttermmemory.Usage{PromptTokens: tokens, CompletionTokens: tokens, TotalTokens: 2 * tokens},
	}
}

func echoTool(_ context.Context, input string) (string, error) {
	return "echo: " + input, nil
}

func failingTool(context.Context, string) (string, error) {
	return "", errors.New("service unavailable")
}

func newTestAgent(t *testing.T, p provider.Provider) api.Agent {
	t.Helper()
	a, err := agent.New(
		agent.Name("tester"),
		agent.Model(&fakeModel{provider: p}),
		agent.Instructions("You answer questions."),
		agent.Tools(
			tool.Must(echoTool, tool.Name("echo"), tool.Description("Echoes the input")),
			tool.Must(failingTool, tool.Name("broken"), tool.Description("Always fails")),
		),
	)
	require.NoError(t, err)
	return a
}

type recordingHook struct {
	events.Noop
	mu            sync.Mutex
	prompts       []string
	chunks        []string
	toolCalls     []messages.ToolCallMessage
	toolResponses []messages.ToolResponse
	answers       []string
	errs          []error
}

func (h *recordingHook) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompts = append(h.prompts, msg.Payload.Content)
}

func (h *recordingHook) OnAssistantChunk(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunks = append(h.chunks, msg.Payload.Content)
}

func (h *recordingHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toolCalls = append(h.toolCalls, msg.Payload)
}

func (h *recordingHook) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toolResponses = append(h.toolResponses, msg.Payload)
}

func (h *recordingHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.answers = append(h.answers, msg.Payload.Content)
}

func (h *recordingHook) OnError(_ context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}
