package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var (
	testRunID  = uuid.MustParse("01936f5e-3c2a-7d4b-8e9f-0123456789ab")
	testTurnID = uuid.MustParse("01936f5e-3c2a-7d4b-8e9f-0123456789ac")
	testTime   = time.Date(2024, 11, 3, 10, 15, 30, 0, time.UTC)
)

func testBuilder() messages.Builder {
	return messages.New().
		WithSender("research-assistant").
		WithRunID(testRunID).
		WithTurnID(testTurnID).
		WithClock(func() time.Time { return testTime })
}

func TestToJSON_Discriminator(t *testing.T) {
	b := testBuilder()
	tests := []struct {
		name  string
		event Event
		kind  string
		field string
	}{
		{"delim", Delim{RunID: testRunID, TurnID: testTurnID, Delim: "start"}, "delim", "delim"},
		{"chunk", ChunkFromMessage(b.AssistantMessage("hel")), "chunk", "chunk.content"},
		{"user prompt", RequestFromMessage(b.UserPrompt("what is go?")), "request", "message.content"},
		{"tool response", RequestFromMessage(b.ToolResponse("call_1", "search", "results")), "request", "message.tool_call_id"},
		{"answer", ResponseFromMessage(b.AssistantMessage("done")), "response", "response.content"},
		{"tool call", ResponseFromMessage(b.ToolCall(messages.ToolCallData{ID: "call_1", Name: "search", Arguments: "{}"})), "response", "response.tool_calls"},
		{"error", Error{RunID: testRunID, TurnID: testTurnID, Err: errors.New("boom")}, "error", "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := ToJSON(tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, gjson.GetBytes(data, "type").String())
			assert.Equal(t, testRunID.String(), gjson.GetBytes(data, "run_id").String())
			assert.True(t, gjson.GetBytes(data, tc.field).Exists(), "missing %s in %s", tc.field, data)
		})
	}
}

func TestFromJSON(t *testing.T) {
	b := testBuilder()

	t.Run("user prompt", func(t *testing.T) {
		data, err := ToJSON(RequestFromMessage(b.UserPrompt("what is go?")))
		require.NoError(t, err)

		ev, err := FromJSON(data)
		require.NoError(t, err)
		req, ok := ev.(Request[messages.UserMessage])
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, "what is go?", req.Message.Content)
		assert.Equal(t, "research-assistant", req.Sender)
		assert.Equal(t, testTurnID, req.TurnID)
		assert.True(t, testTime.Equal(time.Time(req.Timestamp)))
	})

	t.Run("tool response", func(t *testing.T) {
		data, err := ToJSON(RequestFromMessage(b.ToolError("call_1", "wikipedia", "not found")))
		require.NoError(t, err)

		ev, err := FromJSON(data)
		require.NoError(t, err)
		req, ok := ev.(Request[messages.ToolResponse])
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, "call_1", req.Message.ToolCallID)
		assert.True(t, req.Message.IsError)
	})

	t.Run("tool call", func(t *testing.T) {
		call := messages.ToolCallData{ID: "call_1", Name: "search", Arguments: `{"__arg1":"go"}`}
		data, err := ToJSON(ResponseFromMessage(b.ToolCall(call)))
		require.NoError(t, err)

		ev, err := FromJSON(data)
		require.NoError(t, err)
		resp, ok := ev.(Response[messages.ToolCallMessage])
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, []messages.ToolCallData{call}, resp.Response.ToolCalls)
	})

	t.Run("assistant chunk", func(t *testing.T) {
		data, err := ToJSON(ChunkFromMessage(b.AssistantMessage("hel")))
		require.NoError(t, err)

		ev, err := FromJSON(data)
		require.NoError(t, err)
		chunk, ok := ev.(Chunk[messages.AssistantMessage])
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, "hel", chunk.Chunk.Content)
	})

	t.Run("error", func(t *testing.T) {
		data, err := ToJSON(Error{RunID: testRunID, TurnID: testTurnID, Err: errors.New("boom")})
		require.NoError(t, err)

		ev, err := FromJSON(data)
		require.NoError(t, err)
		e, ok := ev.(Error)
		require.True(t, ok, "got %T", ev)
		assert.EqualError(t, e.Err, "boom")
	})

	t.Run("delim", func(t *testing.T) {
		data, err := ToJSON(Delim{RunID: testRunID, TurnID: testTurnID, Delim: "end"})
		require.NoError(t, err)

		ev, err := FromJSON(data)
		require.NoError(t, err)
		assert.Equal(t, Delim{RunID: testRunID, TurnID: testTurnID, Delim: "end"}, ev)
	})
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"invalid json", `{"type":`, "invalid json"},
		{"unknown type", `{"type":"nope"}`, `unknown event type "nope"`},
		{"missing run id", `{"type":"delim","turn_id":"01936f5e-3c2a-7d4b-8e9f-0123456789ac","delim":"start"}`, "run_id"},
		{"bad turn id", `{"type":"delim","run_id":"01936f5e-3c2a-7d4b-8e9f-0123456789ab","turn_id":"x","delim":"start"}`, "invalid turn_id"},
		{"missing payload", `{"type":"response","run_id":"01936f5e-3c2a-7d4b-8e9f-0123456789ab","turn_id":"01936f5e-3c2a-7d4b-8e9f-0123456789ac"}`, "response"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tc.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestFromStreamEvent(t *testing.T) {
	tests := []struct {
		name  string
		event provider.StreamEvent
		check func(*testing.T, Event)
	}{
		{
			name:  "delim",
			event: provider.Delim{RunID: testRunID, TurnID: testTurnID, Delim: "start"},
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, Delim{RunID: testRunID, TurnID: testTurnID, Delim: "start"}, ev)
			},
		},
		{
			name:  "chunk",
			event: provider.Chunk[messages.AssistantMessage]{RunID: testRunID, TurnID: testTurnID, Chunk: messages.AssistantMessage{Content: "hi"}},
			check: func(t *testing.T, ev Event) {
				c, ok := ev.(Chunk[messages.AssistantMessage])
				require.True(t, ok)
				assert.Equal(t, "hi", c.Chunk.Content)
				assert.Equal(t, "agent", c.Sender)
			},
		},
		{
			name: "tool call response",
			event: provider.Response[messages.ToolCallMessage]{RunID: testRunID, TurnID: testTurnID, Response: messages.ToolCallMessage{
				ToolCalls: []messages.ToolCallData{{ID: "1", Name: "search"}},
			}},
			check: func(t *testing.T, ev Event) {
				r, ok := ev.(Response[messages.ToolCallMessage])
				require.True(t, ok)
				assert.Equal(t, []string{"search"}, r.Response.Names())
			},
		},
		{
			name:  "error",
			event: provider.Error{RunID: testRunID, TurnID: testTurnID, Err: context.Canceled},
			check: func(t *testing.T, ev Event) {
				e, ok := ev.(Error)
				require.True(t, ok)
				assert.ErrorIs(t, e, context.Canceled)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := FromStreamEvent(tc.event, "agent")
			require.NoError(t, err)
			tc.check(t, ev)
		})
	}
}

func TestMessageConversion(t *testing.T) {
	msg := testBuilder().UserPrompt("hello")
	assert.Equal(t, msg, RequestFromMessage(msg).ToMessage())

	answer := testBuilder().AssistantMessage("bye")
	assert.Equal(t, answer, ResponseFromMessage(answer).ToMessage())
	assert.Equal(t, answer, ChunkFromMessage(answer).ToMessage())
}
