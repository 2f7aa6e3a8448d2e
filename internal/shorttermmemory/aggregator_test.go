package shorttermmemory

import (
	"testing"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator(t *testing.T) {
	t.Run("new aggregator", func(t *testing.T) {
		agg := New()
		assert.NotEqual(t, uuid.Nil, agg.ID(), "should have valid ID")
		assert.Equal(t, 0, agg.Len())
		assert.Equal(t, 0, agg.TurnLen())
		assert.True(t, agg.Usage().IsZero())
	})

	t.Run("Messages returns copy of messages", func(t *testing.T) {
		agg := New()
		agg.AddUserPrompt(messages.New().UserPrompt("message 1"))
		agg.AddUserPrompt(messages.New().UserPrompt("message 2"))

		msgs := agg.Messages()
		require.Len(t, msgs, 2)

		msgs = append(msgs, messages.EraseType(messages.New().UserPrompt("message 3")))
		assert.Equal(t, 2, agg.Len(), "original aggregator should be unchanged")
		assert.Len(t, msgs, 3)
	})

	t.Run("keeps insertion order across payload kinds", func(t *testing.T) {
		agg := New()
		b := messages.New()
		agg.AddUserPrompt(b.UserPrompt("what is Mars?"))
		agg.AddToolCall(b.ToolCall(messages.ToolCallData{ID: "1", Name: "search"}))
		agg.AddToolResponse(b.ToolResponse("1", "search", "a red planet"))
		agg.AddAssistantMessage(b.AssistantMessage("done"))

		var kinds []string
		for _, msg := range agg.Messages() {
			switch msg.Payload.(type) {
			case messages.UserMessage:
				kinds = append(kinds, "user")
			case messages.ToolCallMessage:
				kinds = append(kinds, "tool_call")
			case messages.ToolResponse:
				kinds = append(kinds, "tool_response")
			case messages.AssistantMessage:
				kinds = append(kinds, "assistant")
			}
		}
		assert.Equal(t, []string{"user", "tool_call", "tool_response", "assistant"}, kinds)
	})
}

func TestAggregator_ForkJoin(t *testing.T) {
	original := New()
	original.AddUserPrompt(messages.New().UserPrompt("1"))
	original.AddUserPrompt(messages.New().UserPrompt("2"))

	forked := original.Fork()
	assert.NotEqual(t, original.ID(), forked.ID())
	assert.Equal(t, 2, forked.Len())
	assert.Equal(t, 0, forked.TurnLen())

	original.AddUserPrompt(messages.New().UserPrompt("3"))
	forked.AddUserPrompt(messages.New().UserPrompt("4"))
	forked.AddUsage(&Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})

	assert.Equal(t, 1, forked.TurnLen())
	require.Len(t, forked.TurnMessages(), 1)

	original.Join(forked)

	var contents []string
	for _, msg := range original.Messages() {
		contents = append(contents, msg.Payload.(messages.UserMessage).Content)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, contents)
	assert.Equal(t, Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, original.Usage())
}

func TestUsage_AddUsage(t *testing.T) {
	u := Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	u.AddUsage(&Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 22, TotalTokens: 33}, u)

	u.AddUsage(nil)
	assert.Equal(t, int64(33), u.TotalTokens)
	assert.False(t, u.IsZero())
}
