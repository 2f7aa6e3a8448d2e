// Package prompt assembles what the model sees on every turn of the agent loop.
//
// A Template is rendered once from the system instruction text and its
// variables. Build then lays out, in order, the chat history, the user query and
// the scratchpad of tool calls and tool results for the current run. Build does
// no I/O and cannot fail.
package prompt

import (
	"strings"
	"text/template"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/types"
)

// DefaultInstructions is the system instruction of the research assistant.
// It expects a format_instructions variable describing the answer schema.
const DefaultInstructions = `You are a research assistant that will help generate a research paper.
Answer the user query and use necessary tools.
Wrap the output in this format and provide no other text
{{.format_instructions}}`

// Template is a rendered system instruction.
type Template struct {
	instructions string
}

// New renders instructions as a text/template with vars. A variable referenced
// by the template but absent from vars is an error.
func New(instructions string, vars types.ContextVars) (*Template, error) {
	rendered, err := render("instructions", instructions, vars)
	if err != nil {
		return nil, err
	}
	return &Template{instructions: rendered}, nil
}

func render(name, text string, vars types.ContextVars) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, map[string]any(vars)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Instructions returns the rendered system instruction.
func (t *Template) Instructions() string {
	return t.instructions
}

// Prompt is the input of a single model call.
type Prompt struct {
	Instructions string
	Messages     []messages.Message[messages.ModelMessage]
}

// Build lays out history, then query as a user message, then the scratchpad.
func (t *Template) Build(history []messages.Message[messages.ModelMessage], query string, scratchpad []messages.Message[messages.ModelMessage]) Prompt {
	return t.Compose(history, messages.New().UserPrompt(query), scratchpad)
}

// Compose is Build for a query message that was already stamped by the caller.
func (t *Template) Compose(history []messages.Message[messages.ModelMessage], query messages.Message[messages.UserMessage], scratchpad []messages.Message[messages.ModelMessage]) Prompt {
	msgs := make([]messages.Message[messages.ModelMessage], 0, len(history)+1+len(scratchpad))
	msgs = append(msgs, history...)
	msgs = append(msgs, messages.EraseType(query))
	msgs = append(msgs, scratchpad...)
	return Prompt{
		Instructions: t.instructions,
		Messages:     msgs,
	}
}
