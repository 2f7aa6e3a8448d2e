package provider

import (
	"context"

	"github.com/IronClad1607/research-agent/prompt"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/google/uuid"
)

// Provider sends a prompt to a model backend.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// CompletionParams is everything a backend needs for one turn.
type CompletionParams struct {
	// RunID identifies the query being answered.
	RunID uuid.UUID
	// TurnID identifies this model call within the run.
	TurnID uuid.UUID

	// Prompt is the system instruction plus the ordered conversation.
	Prompt prompt.Prompt

	// Stream asks the backend for incremental chunks.
	Stream bool

	Model interface {
		Name() string
		Provider() Provider
	}

	// Tools are advertised to the model in order.
	Tools []tool.Definition

	// Prevents unkeyed literals
	_ struct{}
}
