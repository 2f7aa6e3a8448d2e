// Package agent builds api.Agent values from functional options.
package agent

import (
	"errors"
	"fmt"

	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/pkg/stdx"
	"github.com/IronClad1607/research-agent/prompt"
	"github.com/IronClad1607/research-agent/provider/openai"
	"github.com/IronClad1607/research-agent/tool"
	"github.com/IronClad1607/research-agent/types"
	"github.com/fogfish/opts"
)

var _ api.Agent = (*defaultAgent)(nil)

type defaultAgent struct {
	name         string
	model        api.Model
	instructions string
	contextVars  types.ContextVars
	tools        []tool.Definition

	prompt   *prompt.Template
	registry *tool.Registry
}

func (a *defaultAgent) Name() string {
	return a.name
}

func (a *defaultAgent) Model() api.Model {
	return a.model
}

func (a *defaultAgent) Prompt() *prompt.Template {
	return a.prompt
}

func (a *defaultAgent) Tools() *tool.Registry {
	return a.registry
}

var (
	Name         = opts.ForName[defaultAgent, string]("name")
	Model        = opts.ForName[defaultAgent, api.Model]("model")
	Instructions = opts.ForName[defaultAgent, string]("instructions")
)

// ContextVars adds variables for the instruction template. Later values win.
func ContextVars(vars types.ContextVars) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.contextVars = o.contextVars.Merge(vars)
		return nil
	})
}

func Tools(tool tool.Definition, extraTools ...tool.Definition) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

// New builds an agent and renders its instructions. The model defaults to
// gpt-4o-mini.
func New(options ...opts.Option[defaultAgent]) (api.Agent, error) {
	agent := &defaultAgent{
		name: "research-assistant",
	}
	if err := opts.Apply(agent, options); err != nil {
		return nil, err
	}
	if agent.model == nil {
		agent.model = openai.GPT4oMini()
	}

	var errs []error
	if agent.name == "" {
		errs = append(errs, errors.New("agent name is required"))
	}

	tmpl, err := prompt.New(agent.instructions, agent.contextVars)
	if err != nil {
		errs = append(errs, fmt.Errorf("render instructions: %w", err))
	}
	agent.prompt = tmpl

	reg, err := tool.NewRegistry(agent.tools...)
	if err != nil {
		errs = append(errs, err)
	}
	agent.registry = reg

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return agent, nil
}

// Must is New that panics on error.
func Must(options ...opts.Option[defaultAgent]) api.Agent {
	return stdx.Must1(New(options...))
}
