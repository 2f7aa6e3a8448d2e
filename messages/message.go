package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// ModelMessage is implemented by every payload that can be part of a conversation.
type ModelMessage interface {
	message()
}

// Request is a payload sent to the model.
type Request interface {
	ModelMessage
	request()
}

// Response is a payload produced by the model.
type Response interface {
	ModelMessage
	response()
}

// Message wraps a payload with the run it belongs to and who produced it.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// EraseType widens a typed message so it can be stored next to messages of
// other kinds.
func EraseType[T ModelMessage](m Message[T]) Message[ModelMessage] {
	return Message[ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
	}
}

type UserMessage struct {
	Content string `json:"content"`
}

func (UserMessage) message() {}
func (UserMessage) request() {}

type AssistantMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

func (AssistantMessage) message()  {}
func (AssistantMessage) response() {}

// ToolCallData is one tool invocation requested by the model. Arguments is the
// raw argument text, usually a JSON object.
type ToolCallData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCallMessage struct {
	ToolCalls []ToolCallData `json:"tool_calls"`
}

func (ToolCallMessage) message()  {}
func (ToolCallMessage) response() {}

// Names lists the requested tool names in call order.
func (t ToolCallMessage) Names() []string {
	names := make([]string, len(t.ToolCalls))
	for i, tc := range t.ToolCalls {
		names[i] = tc.Name
	}
	return names
}

// ToolResponse carries the text a tool produced for the call with ToolCallID.
// IsError marks text that describes a failure rather than a result.
type ToolResponse struct {
	ToolName   string `json:"tool_name"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

func (ToolResponse) message() {}
func (ToolResponse) request() {}

// Builder stamps new messages with shared identifiers and the current time.
type Builder struct {
	runID  uuid.UUID
	turnID uuid.UUID
	sender string
	now    func() time.Time
}

// New returns a Builder using the wall clock.
func New() Builder {
	return Builder{now: time.Now}
}

func (b Builder) WithSender(sender string) Builder {
	b.sender = sender
	return b
}

func (b Builder) WithRunID(id uuid.UUID) Builder {
	b.runID = id
	return b
}

func (b Builder) WithTurnID(id uuid.UUID) Builder {
	b.turnID = id
	return b
}

// WithClock replaces the time source, used by tests that assert on timestamps.
func (b Builder) WithClock(now func() time.Time) Builder {
	b.now = now
	return b
}

func (b Builder) UserPrompt(content string) Message[UserMessage] {
	return build(b, UserMessage{Content: content})
}

func (b Builder) AssistantMessage(content string) Message[AssistantMessage] {
	return build(b, AssistantMessage{Content: content})
}

func (b Builder) ToolCall(calls ...ToolCallData) Message[ToolCallMessage] {
	return build(b, ToolCallMessage{ToolCalls: calls})
}

func (b Builder) ToolResponse(callID, toolName, content string) Message[ToolResponse] {
	return build(b, ToolResponse{ToolCallID: callID, ToolName: toolName, Content: content})
}

func (b Builder) ToolError(callID, toolName, content string) Message[ToolResponse] {
	return build(b, ToolResponse{ToolCallID: callID, ToolName: toolName, Content: content, IsError: true})
}

func build[T ModelMessage](b Builder, payload T) Message[T] {
	now := b.now
	if now == nil {
		now = time.Now
	}
	return Message[T]{
		RunID:     b.runID,
		TurnID:    b.turnID,
		Payload:   payload,
		Sender:    b.sender,
		Timestamp: strfmt.DateTime(now()),
	}
}
