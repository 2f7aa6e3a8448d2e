package events

import (
	"errors"
	"fmt"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/provider"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	typeDelim    = "delim"
	typeChunk    = "chunk"
	typeRequest  = "request"
	typeResponse = "response"
	typeError    = "error"
)

type Event interface {
	event()
}

// Delim marks the start or end of a streamed answer.
type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) event() {}

// Chunk is a streamed fragment of a model reply.
type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Chunk[T]) event() {}

// Request is input to the model: a user prompt or a tool result.
type Request[T messages.Request] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Message   T               `json:"message"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Request[T]) event() {}

// Response is a complete model reply: a final answer or a tool call request.
type Response[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Response  T               `json:"response"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Response[T]) event() {}

// Error reports a failure. Only the message survives serialisation.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) event() {}

func (e Error) Error() string {
	errStr := "<nil>"
	if e.Err != nil {
		errStr = e.Err.Error()
	}
	return fmt.Sprintf("%s run_id=%s turn_id=%s", errStr, e.RunID, e.TurnID)
}

func (e Error) Unwrap() error {
	return e.Err
}

// RequestFromMessage wraps a request message as an event.
func RequestFromMessage[T messages.Request](m messages.Message[T]) Request[T] {
	return Request[T]{RunID: m.RunID, TurnID: m.TurnID, Message: m.Payload, Sender: m.Sender, Timestamp: m.Timestamp}
}

func (r Request[T]) ToMessage() messages.Message[T] {
	return messages.Message[T]{RunID: r.RunID, TurnID: r.TurnID, Payload: r.Message, Sender: r.Sender, Timestamp: r.Timestamp}
}

// ResponseFromMessage wraps a response message as an event.
func ResponseFromMessage[T messages.Response](m messages.Message[T]) Response[T] {
	return Response[T]{RunID: m.RunID, TurnID: m.TurnID, Response: m.Payload, Sender: m.Sender, Timestamp: m.Timestamp}
}

func (r Response[T]) ToMessage() messages.Message[T] {
	return messages.Message[T]{RunID: r.RunID, TurnID: r.TurnID, Payload: r.Response, Sender: r.Sender, Timestamp: r.Timestamp}
}

// ChunkFromMessage wraps a streamed fragment as an event.
func ChunkFromMessage[T messages.Response](m messages.Message[T]) Chunk[T] {
	return Chunk[T]{RunID: m.RunID, TurnID: m.TurnID, Chunk: m.Payload, Sender: m.Sender, Timestamp: m.Timestamp}
}

func (c Chunk[T]) ToMessage() messages.Message[T] {
	return messages.Message[T]{RunID: c.RunID, TurnID: c.TurnID, Payload: c.Chunk, Sender: c.Sender, Timestamp: c.Timestamp}
}

// FromStreamEvent converts a provider event, attributing it to sender.
func FromStreamEvent(e provider.StreamEvent, sender string) (Event, error) {
	switch event := e.(type) {
	case provider.Delim:
		return Delim{RunID: event.RunID, TurnID: event.TurnID, Delim: event.Delim}, nil
	case provider.Chunk[messages.ToolCallMessage]:
		return Chunk[messages.ToolCallMessage]{RunID: event.RunID, TurnID: event.TurnID, Chunk: event.Chunk, Sender: sender, Timestamp: event.Timestamp}, nil
	case provider.Chunk[messages.AssistantMessage]:
		return Chunk[messages.AssistantMessage]{RunID: event.RunID, TurnID: event.TurnID, Chunk: event.Chunk, Sender: sender, Timestamp: event.Timestamp}, nil
	case provider.Response[messages.ToolCallMessage]:
		return Response[messages.ToolCallMessage]{RunID: event.RunID, TurnID: event.TurnID, Response: event.Response, Sender: sender, Timestamp: event.Timestamp}, nil
	case provider.Response[messages.AssistantMessage]:
		return Response[messages.AssistantMessage]{RunID: event.RunID, TurnID: event.TurnID, Response: event.Response, Sender: sender, Timestamp: event.Timestamp}, nil
	case provider.Error:
		return Error{RunID: event.RunID, TurnID: event.TurnID, Err: event.Err, Sender: sender, Timestamp: event.Timestamp}, nil
	default:
		return nil, fmt.Errorf("unknown stream event type: %T", e)
	}
}

// ToJSON encodes an event with its type discriminator.
func ToJSON(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event produced by ToJSON. The payload kind is inferred
// from its fields.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case typeDelim:
		var e Delim
		err := e.UnmarshalJSON(data)
		return e, err
	case typeChunk:
		if gjson.GetBytes(data, "chunk.tool_calls").Exists() {
			var e Chunk[messages.ToolCallMessage]
			err := e.UnmarshalJSON(data)
			return e, err
		}
		var e Chunk[messages.AssistantMessage]
		err := e.UnmarshalJSON(data)
		return e, err
	case typeRequest:
		if gjson.GetBytes(data, "message.tool_call_id").Exists() {
			var e Request[messages.ToolResponse]
			err := e.UnmarshalJSON(data)
			return e, err
		}
		var e Request[messages.UserMessage]
		err := e.UnmarshalJSON(data)
		return e, err
	case typeResponse:
		if gjson.GetBytes(data, "response.tool_calls").Exists() {
			var e Response[messages.ToolCallMessage]
			err := e.UnmarshalJSON(data)
			return e, err
		}
		var e Response[messages.AssistantMessage]
		err := e.UnmarshalJSON(data)
		return e, err
	case typeError:
		var e Error
		err := e.UnmarshalJSON(data)
		return e, err
	default:
		return nil, fmt.Errorf("unknown event type %q", kind)
	}
}

// envelope holds the fields every event shares on the wire.
type envelope struct {
	kind      string
	runID     uuid.UUID
	turnID    uuid.UUID
	sender    string
	timestamp strfmt.DateTime
}

func (h envelope) encode(field string, payload any) ([]byte, error) {
	result := []byte(`{}`)

	var err error
	result, err = sjson.SetBytes(result, "type", h.kind)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "run_id", h.runID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", h.turnID.String())
	if err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case nil:
	case string:
		result, err = sjson.SetBytes(result, field, p)
	default:
		var raw []byte
		raw, err = json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", field, err)
		}
		result, err = sjson.SetRawBytes(result, field, raw)
	}
	if err != nil {
		return nil, err
	}

	if h.sender != "" {
		result, err = sjson.SetBytes(result, "sender", h.sender)
		if err != nil {
			return nil, err
		}
	}

	if !h.timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", h.timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// decodeEnvelope validates the shared fields and returns the payload under field.
func decodeEnvelope(data []byte, kind, field string) (envelope, gjson.Result, error) {
	var h envelope
	if !gjson.ValidBytes(data) {
		return h, gjson.Result{}, fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != kind {
		return h, gjson.Result{}, fmt.Errorf("missing or invalid type, expected '%s'", kind)
	}
	h.kind = kind

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return h, gjson.Result{}, errors.New("missing required field 'run_id'")
	}
	if err := h.runID.UnmarshalText([]byte(runID.String())); err != nil {
		return h, gjson.Result{}, fmt.Errorf("invalid run_id: %w", err)
	}

	turnID := gjson.GetBytes(data, "turn_id")
	if !turnID.Exists() {
		return h, gjson.Result{}, errors.New("missing required field 'turn_id'")
	}
	if err := h.turnID.UnmarshalText([]byte(turnID.String())); err != nil {
		return h, gjson.Result{}, fmt.Errorf("invalid turn_id: %w", err)
	}

	payload := gjson.GetBytes(data, field)
	if !payload.Exists() {
		return h, gjson.Result{}, fmt.Errorf("missing required field '%s'", field)
	}

	if sender := gjson.GetBytes(data, "sender"); sender.Exists() {
		h.sender = sender.String()
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := h.timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return h, gjson.Result{}, fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return h, payload, nil
}

func decodePayload(field string, payload gjson.Result, dst any) error {
	if err := json.Unmarshal([]byte(payload.Raw), dst); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}

func (d Delim) MarshalJSON() ([]byte, error) {
	return envelope{kind: typeDelim, runID: d.RunID, turnID: d.TurnID}.encode("delim", d.Delim)
}

func (d *Delim) UnmarshalJSON(data []byte) error {
	h, payload, err := decodeEnvelope(data, typeDelim, "delim")
	if err != nil {
		return err
	}
	d.RunID, d.TurnID, d.Delim = h.runID, h.turnID, payload.String()
	return nil
}

func (c Chunk[T]) MarshalJSON() ([]byte, error) {
	return envelope{kind: typeChunk, runID: c.RunID, turnID: c.TurnID, sender: c.Sender, timestamp: c.Timestamp}.encode("chunk", c.Chunk)
}

func (c *Chunk[T]) UnmarshalJSON(data []byte) error {
	h, payload, err := decodeEnvelope(data, typeChunk, "chunk")
	if err != nil {
		return err
	}
	if err := decodePayload("chunk", payload, &c.Chunk); err != nil {
		return err
	}
	c.RunID, c.TurnID, c.Sender, c.Timestamp = h.runID, h.turnID, h.sender, h.timestamp
	return nil
}

func (r Request[T]) MarshalJSON() ([]byte, error) {
	return envelope{kind: typeRequest, runID: r.RunID, turnID: r.TurnID, sender: r.Sender, timestamp: r.Timestamp}.encode("message", r.Message)
}

func (r *Request[T]) UnmarshalJSON(data []byte) error {
	h, payload, err := decodeEnvelope(data, typeRequest, "message")
	if err != nil {
		return err
	}
	if err := decodePayload("message", payload, &r.Message); err != nil {
		return err
	}
	r.RunID, r.TurnID, r.Sender, r.Timestamp = h.runID, h.turnID, h.sender, h.timestamp
	return nil
}

func (r Response[T]) MarshalJSON() ([]byte, error) {
	return envelope{kind: typeResponse, runID: r.RunID, turnID: r.TurnID, sender: r.Sender, timestamp: r.Timestamp}.encode("response", r.Response)
}

func (r *Response[T]) UnmarshalJSON(data []byte) error {
	h, payload, err := decodeEnvelope(data, typeResponse, "response")
	if err != nil {
		return err
	}
	if err := decodePayload("response", payload, &r.Response); err != nil {
		return err
	}
	r.RunID, r.TurnID, r.Sender, r.Timestamp = h.runID, h.turnID, h.sender, h.timestamp
	return nil
}

func (e Error) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return envelope{kind: typeError, runID: e.RunID, turnID: e.TurnID, sender: e.Sender, timestamp: e.Timestamp}.encode("error", msg)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	h, payload, err := decodeEnvelope(data, typeError, "error")
	if err != nil {
		return err
	}
	e.Err = errors.New(payload.String())
	e.RunID, e.TurnID, e.Sender, e.Timestamp = h.runID, h.turnID, h.sender, h.timestamp
	return nil
}
