package openai

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
	"github.com/go-openapi/strfmt"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

type Provider struct {
	client *openai.Client
}

func New(options ...option.RequestOption) *Provider {
	client := openai.NewClient(options...)
	return &Provider{
		client: client,
	}
}

func (p *Provider) buildRequest(_ context.Context, params *provider.CompletionParams) (openai.ChatCompletionNewParams, error) {
	if params.Model == nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	result, user := messagesToOpenAI(params.Prompt)

	tools := make([]openai.ChatCompletionToolParam, len(params.Tools))
	for i, tool := range params.Tools {
		if tool.Function == nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("tool %s has nil function", tool.Name)
		}

		name, parameters := tool.ToNameAndSchema()

		jv, err := jsonx.ToDynamicJSON(parameters)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert tool to name and schema: %w", err)
		}

		def := openai.FunctionDefinitionParam{
			Name:       openai.String(name),
			Parameters: openai.F(shared.FunctionParameters(jv)),
		}
		if strings.TrimSpace(tool.Description) != "" {
			def.Description = openai.String(tool.Description)
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(def),
		}
	}

	oaiParams := openai.ChatCompletionNewParams{
		Messages:    openai.F(result),
		Model:       openai.F(params.Model.Name()),
		N:           openai.Int(1),
		Temperature: openai.Float(0.1),
	}
	if len(tools) > 0 {
		oaiParams.Tools = openai.F(tools)
		oaiParams.ParallelToolCalls = openai.Bool(false)
	}
	if strings.TrimSpace(user) != "" {
		oaiParams.User = openai.String(user)
	}
	if params.Stream {
		oaiParams.StreamOptions = openai.F(openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		})
	}

	return oaiParams, nil
}

func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	chatParams, err := p.buildRequest(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		if params.Stream {
			p.runStream(ctx, chatParams, &params, events)
		} else {
			p.runOnce(ctx, chatParams, &params, events)
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

func (p *Provider) runStream(ctx context.Context, params openai.ChatCompletionNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	strm := p.client.Chat.Completions.NewStreaming(ctx, params)

	if strm.Err() != nil {
		strm.Close()
		provider.Send(ctx, events, errorEvent(command, strm.Err()))
		return
	}
	defer strm.Close()

	var (
		notFirst bool
		acc      openai.ChatCompletionAccumulator
		usage    openai.CompletionUsage
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

		chunk := strm.Current()
		acc.AddChunk(chunk)
		if chunk.Usage.TotalTokens > 0 {
			usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if !provider.Send(ctx, events, completionChunkToStreamEvent(&chunk, command)) {
			return
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
		provider.Send(ctx, events, errorEvent(command, fmt.Errorf("empty completion stream")))
		return
	}

	if !provider.Send(ctx, events, provider.Delim{RunID: command.RunID, TurnID: command.TurnID, Delim: "end"}) {
		return
	}
	compl := acc.ChatCompletion
	compl.Usage = usage
	provider.Send(ctx, events, completionToStreamEvent(&compl, command))
}

func (p *Provider) runOnce(ctx context.Context, params openai.ChatCompletionNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	chat, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		provider.Send(ctx, events, errorEvent(command, err))
		return
	}

	provider.Send(ctx, events, completionToStreamEvent(chat, command))
}

func messagesToOpenAI(p prompt.Prompt) ([]openai.ChatCompletionMessageParamUnion, string) {
	result := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(p.Instructions),
	}
	var user string
	for _, message := range p.Messages {
		switch msg := message.Payload.(type) {
		case messages.ToolResponse:
			result = append(result, openai.ToolMessage(msg.ToolCallID, msg.Content))
		case messages.UserMessage:
			if message.Sender != "" {
				user = message.Sender
			}
			result = append(result, openai.UserMessageParts(openai.TextPart(msg.Content)))
		case messages.ToolCallMessage:
			tcd := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				tcd[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   openai.String(tc.ID),
					Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
					Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      openai.String(tc.Name),
						Arguments: openai.String(tc.Arguments),
					}),
				}
			}
			result = append(result, openai.ChatCompletionMessageParam{
				Role:      openai.F(openai.ChatCompletionMessageParamRoleAssistant),
				ToolCalls: openai.F[any](tcd),
			})
		case messages.AssistantMessage:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			if msg.Content != "" {
				am.Content.Value = append(am.Content.Value, openai.TextPart(msg.Content))
				am.Content = openai.F(am.Content.Value)
			}
			if msg.Refusal != "" {
				am.Refusal = openai.String(msg.Refusal)
			}
			result = append(result, am)
		}
	}
	return result, user
}

func toolCallData(id, name, arguments string) messages.ToolCallData {
	return messages.ToolCallData{ID: id, Name: name, Arguments: arguments}
}

func completionChunkToStreamEvent(chunk *openai.ChatCompletionChunk, command *provider.CompletionParams) provider.StreamEvent {
	choice := chunk.Choices[0].Delta
	if len(choice.ToolCalls) > 0 {
		tcd := make([]messages.ToolCallData, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			tcd[i] = toolCallData(tc.ID, tc.Function.Name, tc.Function.Arguments)
		}

		return provider.Chunk[messages.ToolCallMessage]{
			RunID:     command.RunID,
			TurnID:    command.TurnID,
			Chunk:     messages.ToolCallMessage{ToolCalls: tcd},
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	return provider.Chunk[messages.AssistantMessage]{
		RunID:     command.RunID,
		TurnID:    command.TurnID,
		Chunk:     messages.AssistantMessage{Content: choice.Content, Refusal: choice.Refusal},
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func completionToStreamEvent(chat *openai.ChatCompletion, command *provider.CompletionParams) provider.StreamEvent {
	if len(chat.Choices) == 0 {
		return errorEvent(command, fmt.Errorf("completion has no choices"))
	}

	usage := shorttermmemory.Usage{
		PromptTokens:     chat.Usage.PromptTokens,
		CompletionTokens: chat.Usage.CompletionTokens,
		TotalTokens:      chat.Usage.TotalTokens,
	}

	choice := chat.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		tcd := make([]messages.ToolCallData, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			tcd[i] = toolCallData(tc.ID, tc.Function.Name, tc.Function.Arguments)
		}

		return provider.Response[messages.ToolCallMessage]{
			RunID:     command.RunID,
			TurnID:    command.TurnID,
			Response:  messages.ToolCallMessage{ToolCalls: tcd},
			Usage:     usage,
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	return provider.Response[messages.AssistantMessage]{
		RunID:     command.RunID,
		TurnID:    command.TurnID,
		Response:  messages.AssistantMessage{Content: choice.Content, Refusal: choice.Refusal},
		Usage:     usage,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}
