package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/shorttermmemory"
	"github.com/google/uuid"
)

// DefaultMaxTurns bounds the number of model calls of a run.
const DefaultMaxTurns = 15

var (
	// ErrIterationBudgetExceeded is returned when the model has not produced a
	// final answer within the turn budget.
	ErrIterationBudgetExceeded = errors.New("agent stopped due to iteration limit")

	// ErrUnknownTool is wrapped by a ToolInvocationError for tool names the
	// agent does not have.
	ErrUnknownTool = errors.New("unknown tool")
)

// Executor runs a command to completion.
type Executor interface {
	Run(context.Context, RunCommand) (Outcome, error)
}

// RunCommand describes one query against an agent.
type RunCommand struct {
	// RunID identifies the run. A zero value gets a fresh id.
	RunID uuid.UUID
	Agent api.Agent
	// History is the conversation so far. A successful run appends the query
	// and the final answer to it.
	History *shorttermmemory.Aggregator
	Query   string
	// MaxTurns defaults to DefaultMaxTurns when zero.
	MaxTurns int
	Stream   bool
	// Hook defaults to events.Noop when nil.
	Hook events.Hook
}

func (r RunCommand) Validate() error {
	var err error
	if r.Agent == nil {
		err = errors.Join(err, errors.New("agent is required"))
	} else {
		if r.Agent.Model() == nil {
			err = errors.Join(err, errors.New("agent model is required"))
		} else if r.Agent.Model().Provider() == nil {
			err = errors.Join(err, errors.New("model provider is required"))
		}
		if r.Agent.Prompt() == nil {
			err = errors.Join(err, errors.New("agent prompt is required"))
		}
		if r.Agent.Tools() == nil {
			err = errors.Join(err, errors.New("agent tools are required"))
		}
	}
	if r.History == nil {
		err = errors.Join(err, errors.New("history is required"))
	}
	if strings.TrimSpace(r.Query) == "" {
		err = errors.Join(err, errors.New("query is required"))
	}
	if r.MaxTurns < 0 {
		err = errors.Join(err, fmt.Errorf("max turns must not be negative, got %d", r.MaxTurns))
	}
	return err
}

func (r RunCommand) maxTurns() int {
	if r.MaxTurns == 0 {
		return DefaultMaxTurns
	}
	return r.MaxTurns
}

func (r RunCommand) hook() events.Hook {
	if r.Hook == nil {
		return events.Noop{}
	}
	return r.Hook
}

// Outcome is the result of a run that ended with a final answer.
type Outcome struct {
	RunID uuid.UUID
	// Output is the raw text of the final answer.
	Output string
	// ToolCalls lists every tool invocation in execution order.
	ToolCalls []ToolInvocation
	Usage     shorttermmemory.Usage
}

// ToolNames returns the distinct names of the invoked tools in first-use order.
func (o Outcome) ToolNames() []string {
	seen := make(map[string]struct{}, len(o.ToolCalls))
	names := make([]string, 0, len(o.ToolCalls))
	for _, call := range o.ToolCalls {
		if _, ok := seen[call.Name]; ok {
			continue
		}
		seen[call.Name] = struct{}{}
		names = append(names, call.Name)
	}
	return names
}

// ToolInvocation records one tool call made during a run.
type ToolInvocation struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ToolInvocationError reports a tool call that could not be served.
type ToolInvocationError struct {
	CallID string
	Name   string
	Err    error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %q (call %s): %v", e.Name, e.CallID, e.Err)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}
