package research

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/IronClad1607/research-agent/agent"
	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/executor"
	"github.com/IronClad1607/research-agent/internal/shorttermmemory"
	"github.com/IronClad1607/research-agent/prompt"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/IronClad1607/research-agent/types"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
)

// Assistant answers research queries with one agent and remembers the
// conversation. It is safe for concurrent use; queries are answered one at a
// time.
type Assistant struct {
	agent    api.Agent
	executor executor.Executor
	maxTurns int
	stream   bool
	hook     events.Hook

	mu      sync.Mutex
	history *shorttermmemory.Aggregator
}

// Option configures an Assistant.
type Option = opts.Option[Assistant]

var (
	// WithAgent sets the agent answering queries. Required.
	WithAgent = opts.ForName[Assistant, api.Agent]("agent")

	// WithMaxTurns bounds the model calls per query. Defaults to 15.
	WithMaxTurns = opts.ForName[Assistant, int]("maxTurns")

	// WithStream asks the model for incremental output, delivered to the
	// hook as assistant chunks.
	WithStream = opts.ForName[Assistant, bool]("stream")

	// WithHook observes every run.
	WithHook = opts.ForName[Assistant, events.Hook]("hook")

	// WithExecutor replaces the agent loop.
	WithExecutor = opts.ForName[Assistant, executor.Executor]("executor")
)

// New builds an Assistant.
func New(options ...Option) (*Assistant, error) {
	a := &Assistant{
		maxTurns: executor.DefaultMaxTurns,
		history:  shorttermmemory.New(),
	}
	if err := opts.Apply(a, options); err != nil {
		return nil, err
	}

	var err error
	if a.agent == nil {
		err = errors.Join(err, errors.New("agent is required"))
	}
	if a.maxTurns <= 0 {
		err = errors.Join(err, errors.New("max turns must be positive"))
	}
	if err != nil {
		return nil, err
	}

	if a.executor == nil {
		a.executor = executor.NewLocal()
	}
	if a.hook == nil {
		a.hook = events.Noop{}
	}
	return a, nil
}

// NewAgent builds the research agent: the default research instruction with
// the Response format instructions, answering with model and the given tools.
func NewAgent(model api.Model, tools ...tool.Definition) (api.Agent, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	vars := types.ContextVars{"format_instructions": FormatInstructions()}
	if len(tools) == 0 {
		return agent.New(
			agent.Model(model),
			agent.Instructions(prompt.DefaultInstructions),
			agent.ContextVars(vars),
		)
	}
	return agent.New(
		agent.Model(model),
		agent.Instructions(prompt.DefaultInstructions),
		agent.ContextVars(vars),
		agent.Tools(tools[0], tools[1:]...),
	)
}

// Agent returns the agent that answers queries.
func (a *Assistant) Agent() api.Agent {
	return a.agent
}

// Result is the outcome of a query.
type Result struct {
	RunID uuid.UUID
	// Response is the parsed answer. It is the zero value when parsing failed.
	Response Response
	// Raw is the final reply of the model.
	Raw string
	// Observed lists the tool invocations the agent loop executed.
	Observed []executor.ToolInvocation
	Usage    shorttermmemory.Usage
}

// ObservedTools returns the distinct names of the executed tools in first-use
// order.
func (r Result) ObservedTools() []string {
	return executor.Outcome{ToolCalls: r.Observed}.ToolNames()
}

// UnreportedTools returns the executed tools missing from tools_used.
func (r Result) UnreportedTools() []string {
	var out []string
	for _, name := range r.ObservedTools() {
		if !slices.Contains(r.Response.ToolsUsed, name) {
			out = append(out, name)
		}
	}
	return out
}

// UnobservedTools returns the tools_used entries that were never executed.
func (r Result) UnobservedTools() []string {
	observed := r.ObservedTools()
	var out []string
	for _, name := range r.Response.ToolsUsed {
		if !slices.Contains(observed, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// Research answers query. When the final reply cannot be parsed the Result
// still carries Raw and the error is a *ParseError. Agent loop failures are
// returned unchanged with an empty Result.
func (a *Assistant) Research(ctx context.Context, query string) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	outcome, err := a.executor.Run(ctx, executor.RunCommand{
		Agent:    a.agent,
		History:  a.history,
		Query:    query,
		MaxTurns: a.maxTurns,
		Stream:   a.stream,
		Hook:     a.hook,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		RunID:    outcome.RunID,
		Raw:      outcome.Output,
		Observed: outcome.ToolCalls,
		Usage:    outcome.Usage,
	}
	resp, err := Parse(outcome.Output)
	if err != nil {
		return result, err
	}
	result.Response = resp
	return result, nil
}

// HistoryLen reports how many messages the conversation holds.
func (a *Assistant) HistoryLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.Len()
}

// Reset forgets the conversation.
func (a *Assistant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = shorttermmemory.New()
}
