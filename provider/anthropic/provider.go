package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IronClad1607/research-agent/internal/shorttermmemory"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/pkg/jsonx"
	"github.com/IronClad1607/research-agent/prompt"
	"github.com/IronClad1607/research-agent/provider"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-openapi/strfmt"
	"github.com/tidwall/gjson"
)

// DefaultMaxTokens bounds the length of a single reply.
const DefaultMaxTokens = 4096

type Provider struct {
	client    *anthropic.Client
	maxTokens int64
}

func New(options ...option.RequestOption) *Provider {
	return &Provider{
		client:    anthropic.NewClient(options...),
		maxTokens: DefaultMaxTokens,
	}
}

func (p *Provider) buildRequest(params *provider.CompletionParams) (anthropic.MessageNewParams, error) {
	if params.Model == nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("model is required")
	}

	tools := make([]anthropic.ToolUnionUnionParam, len(params.Tools))
	for i, tool := range params.Tools {
		if tool.Function == nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("tool %s has nil function", tool.Name)
		}

		name, schema := tool.ToNameAndSchema()
		jv, err := jsonx.ToDynamicJSON(schema)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert tool to name and schema: %w", err)
		}

		tp := anthropic.ToolParam{
			Name:        anthropic.String(name),
			InputSchema: anthropic.F[interface{}](jv),
		}
		if strings.TrimSpace(tool.Description) != "" {
			tp.Description = anthropic.String(tool.Description)
		}
		tools[i] = tp
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(params.Model.Name())),
		MaxTokens:   anthropic.F(p.maxTokens),
		Messages:    anthropic.F(messagesToAnthropic(params.Prompt)),
		Temperature: anthropic.F(0.1),
	}
	if strings.TrimSpace(params.Prompt.Instructions) != "" {
		req.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(params.Prompt.Instructions),
		})
	}
	if len(tools) > 0 {
		req.Tools = anthropic.F(tools)
	}
	return req, nil
}

func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	req, err := p.buildRequest(&params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		if params.Stream {
			p.runStream(ctx, req, &params, events)
		} else {
			p.runOnce(ctx, req, &params, events)
		}
	}()
	return events, nil
}

func errorEvent(command *provider.CompletionParams, err error) provider.Error {
	return provider.Error{
		Err:       err,
		RunID:     command.RunID,
		TurnID:    command.TurnID,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func (p *Provider) runOnce(ctx context.Context, req anthropic.MessageNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	msg, err := p.client.Messages.New(ctx, req)
	if err != nil {
		provider.Send(ctx, events, errorEvent(command, err))
		return
	}
	provider.Send(ctx, events, messageToStreamEvent(msg, command))
}

func (p *Provider) runStream(ctx context.Context, req anthropic.MessageNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	strm := p.client.Messages.NewStreaming(ctx, req)
	defer strm.Close()

	var (
		msg      anthropic.Message
		notFirst bool
		sent     int
	)
	for strm.Next() {
		if err := ctx.Err(); err != nil {
			provider.Send(ctx, events, errorEvent(command, err))
			return
		}
		if !notFirst {
			notFirst = true
			if !provider.Send(ctx, events, provider.Delim{RunID: command.RunID, TurnID: command.TurnID, Delim: "start"}) {
				return
			}
		}

		if err := msg.Accumulate(strm.Current()); err != nil {
			provider.Send(ctx, events, errorEvent(command, err))
			return
		}

		text, _ := splitContent(&msg)
		if len(text) > sent {
			chunk := provider.Chunk[messages.AssistantMessage]{
				RunID:     command.RunID,
				TurnID:    command.TurnID,
				Chunk:     messages.AssistantMessage{Content: text[sent:]},
				Timestamp: strfmt.DateTime(time.Now()),
			}
			if !provider.Send(ctx, events, chunk) {
				return
			}
			sent = len(text)
		}
	}

	if err := ctx.Err(); err != nil {
		provider.Send(ctx, events, errorEvent(command, err))
		return
	}
	if err := strm.Err(); err != nil {
		provider.Send(ctx, events, errorEvent(command, err))
		return
	}
	if !notFirst {
		provider.Send(ctx, events, errorEvent(command, fmt.Errorf("empty message stream")))
		return
	}

	if !provider.Send(ctx, events, provider.Delim{RunID: command.RunID, TurnID: command.TurnID, Delim: "end"}) {
		return
	}
	provider.Send(ctx, events, messageToStreamEvent(&msg, command))
}

// splitContent joins the text blocks of msg and collects its tool_use blocks.
func splitContent(msg *anthropic.Message) (string, []messages.ToolCallData) {
	var (
		text  strings.Builder
		calls []messages.ToolCallData
	)
	for _, block := range msg.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args := string(b.Input)
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			calls = append(calls, messages.ToolCallData{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	return text.String(), calls
}

func messageToStreamEvent(msg *anthropic.Message, command *provider.CompletionParams) provider.StreamEvent {
	usage := shorttermmemory.Usage{
		PromptTokens:     msg.Usage.InputTokens,
		CompletionTokens: msg.Usage.OutputTokens,
		TotalTokens:      msg.Usage.InputTokens + msg.Usage.OutputTokens,
	}

	text, calls := splitContent(msg)
	if len(calls) > 0 {
		return provider.Response[messages.ToolCallMessage]{
			RunID:     command.RunID,
			TurnID:    command.TurnID,
			Response:  messages.ToolCallMessage{ToolCalls: calls},
			Usage:     usage,
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	return provider.Response[messages.AssistantMessage]{
		RunID:     command.RunID,
		TurnID:    command.TurnID,
		Response:  messages.AssistantMessage{Content: text},
		Usage:     usage,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// toolInput turns raw tool arguments into a value the SDK can marshal.
func toolInput(arguments string) interface{} {
	if gjson.Valid(arguments) {
		if parsed := gjson.Parse(arguments); parsed.IsObject() {
			return parsed.Value()
		}
	}
	return map[string]string{"input": arguments}
}

func messagesToAnthropic(p prompt.Prompt) []anthropic.MessageParam {
	var (
		result []anthropic.MessageParam
		role   anthropic.MessageParamRole
		blocks []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if role == anthropic.MessageParamRoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		} else {
			result = append(result, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}
	push := func(r anthropic.MessageParamRole, block ...anthropic.ContentBlockParamUnion) {
		if r != role {
			flush()
			role = r
		}
		blocks = append(blocks, block...)
	}

	for _, message := range p.Messages {
		switch msg := message.Payload.(type) {
		case messages.UserMessage:
			if msg.Content != "" {
				push(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
			}
		case messages.AssistantMessage:
			if msg.Content != "" {
				push(anthropic.MessageParamRoleAssistant, anthropic.NewTextBlock(msg.Content))
			}
		case messages.ToolCallMessage:
			for _, tc := range msg.ToolCalls {
				push(anthropic.MessageParamRoleAssistant, anthropic.NewToolUseBlockParam(tc.ID, tc.Name, toolInput(tc.Arguments)))
			}
		case messages.ToolResponse:
			push(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError))
		}
	}
	flush()
	return result
}
