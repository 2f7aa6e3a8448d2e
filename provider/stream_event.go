package provider

import (
	"context"
	"fmt"

	"github.com/IronClad1607/research-agent/internal/shorttermmemory"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

type StreamEvent interface {
	streamEvent()
}

// Delim marks the start or end of a streamed answer.
type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) streamEvent() {}

// Chunk is an incremental fragment of a streamed answer.
type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Chunk[T]) streamEvent() {}

// Response is the complete answer of a turn.
type Response[T messages.Response] struct {
	RunID     uuid.UUID             `json:"run_id"`
	TurnID    uuid.UUID             `json:"turn_id"`
	Response  T                     `json:"response"`
	Usage     shorttermmemory.Usage `json:"usage"`
	Timestamp strfmt.DateTime       `json:"timestamp,omitempty"`
}

func (Response[T]) streamEvent() {}

// Message converts the response into a conversation message sent by sender.
func (r Response[T]) Message(sender string) messages.Message[T] {
	return messages.Message[T]{
		RunID:     r.RunID,
		TurnID:    r.TurnID,
		Payload:   r.Response,
		Sender:    sender,
		Timestamp: r.Timestamp,
	}
}

// Error ends a turn that failed.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("run_id: %s, turn_id: %s, error: %v", e.RunID, e.TurnID, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// Send delivers ev on events. It gives up when ctx is done and the consumer
// has stopped reading, and reports whether ev was delivered.
func Send(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	default:
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
