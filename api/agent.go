package api

import (
	"github.com/IronClad1607/research-agent/prompt"
	"github.com/IronClad1607/research-agent/tool"
)

// Agent is the immutable configuration the agent loop runs with.
type Agent interface {
	// Name identifies the agent in logs and events.
	Name() string
	// Model is the model answering every turn.
	Model() Model
	// Prompt holds the rendered system instruction.
	Prompt() *prompt.Template
	// Tools are the tools the model may call, in the order they are advertised.
	Tools() *tool.Registry
}
