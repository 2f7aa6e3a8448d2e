package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IronClad1607/research-agent/api"
	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/internal/shorttermmemory"
	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/IronClad1607/research-agent/pkg/uuidx"
	"github.com/IronClad1607/research-agent/provider"
	"github.com/google/uuid"
)

// UserSender is the sender recorded on query messages.
const UserSender = "user"

var _ Executor = &Local{}

// Local runs the agent loop in the calling goroutine.
type Local struct {
	logger *slog.Logger
}

// NewLocal returns an executor logging through the default slog logger.
func NewLocal() *Local {
	return &Local{logger: slog.Default().With(slogx.LoggerName("executor"))}
}

type run struct {
	id         uuid.UUID
	agent      api.Agent
	hook       events.Hook
	query      messages.Message[messages.UserMessage]
	history    *shorttermmemory.Aggregator
	scratchpad *shorttermmemory.Aggregator
	calls      []ToolInvocation
}

type turnResult struct {
	answer    *provider.Response[messages.AssistantMessage]
	toolCalls *provider.Response[messages.ToolCallMessage]
}

func (l *Local) Run(ctx context.Context, command RunCommand) (Outcome, error) {
	if err := command.Validate(); err != nil {
		return Outcome{}, err
	}

	runID := command.RunID
	if runID == uuid.Nil {
		runID = uuidx.New()
	}

	r := &run{
		id:         runID,
		agent:      command.Agent,
		hook:       command.hook(),
		query:      messages.New().WithSender(UserSender).WithRunID(runID).UserPrompt(command.Query),
		history:    command.History,
		scratchpad: command.History.Fork(),
	}
	r.hook.OnUserPrompt(ctx, r.query)

	maxTurns := command.maxTurns()
	for turn := range maxTurns {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		turnID := uuidx.New()
		l.logger.DebugContext(ctx, "starting turn",
			slogx.Stringer("run_id", runID),
			slog.Int("turn", turn+1),
			slogx.Stringer("thread_id", r.scratchpad.ID()),
			slog.Int("scratchpad", r.scratchpad.TurnLen()),
		)

		result, err := l.completeTurn(ctx, r, turnID, command.Stream)
		if err != nil {
			r.publishError(ctx, turnID, err)
			return Outcome{}, err
		}

		if result.answer != nil {
			r.scratchpad.AddUsage(&result.answer.Usage)
			answer := result.answer.Message(r.agent.Name())
			r.hook.OnAssistantMessage(ctx, answer)

			usage := r.scratchpad.Usage()
			r.commit(answer, usage)

			return Outcome{
				RunID:     runID,
				Output:    answer.Payload.Content,
				ToolCalls: r.calls,
				Usage:     usage,
			}, nil
		}

		r.scratchpad.AddUsage(&result.toolCalls.Usage)
		if err := l.handleToolCalls(ctx, r, result.toolCalls.Message(r.agent.Name())); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{}, fmt.Errorf("%w: no final answer after %d turns", ErrIterationBudgetExceeded, maxTurns)
}

func (l *Local) completeTurn(ctx context.Context, r *run, turnID uuid.UUID, stream bool) (turnResult, error) {
	model := r.agent.Model()
	p := r.agent.Prompt().Compose(r.history.Messages(), r.query, r.scratchpad.TurnMessages())

	ch, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
		RunID:  r.id,
		TurnID: turnID,
		Prompt: p,
		Stream: stream,
		Model:  model,
		Tools:  r.agent.Tools().Definitions(),
	})
	if err != nil {
		return turnResult{}, fmt.Errorf("failed to get chat completion: %w", err)
	}

	var result turnResult
	for {
		select {
		case <-ctx.Done():
			return turnResult{}, ctx.Err()
		case event, ok := <-ch:
			if !ok {
				if result.answer == nil && result.toolCalls == nil {
					return turnResult{}, errors.New("model stream ended without a response")
				}
				return result, nil
			}

			switch event := event.(type) {
			case provider.Delim, provider.Chunk[messages.ToolCallMessage]:
			case provider.Chunk[messages.AssistantMessage]:
				r.hook.OnAssistantChunk(ctx, messages.Message[messages.AssistantMessage]{
					RunID:     event.RunID,
					TurnID:    event.TurnID,
					Payload:   event.Chunk,
					Sender:    r.agent.Name(),
					Timestamp: event.Timestamp,
				})
			case provider.Response[messages.AssistantMessage]:
				result.answer = &event
			case provider.Response[messages.ToolCallMessage]:
				result.toolCalls = &event
			case provider.Error:
				return turnResult{}, event
			default:
				return turnResult{}, fmt.Errorf("unknown stream event type %T", event)
			}
		}
	}
}

func (l *Local) handleToolCalls(ctx context.Context, r *run, msg messages.Message[messages.ToolCallMessage]) error {
	r.scratchpad.AddToolCall(msg)
	r.hook.OnToolCallMessage(ctx, msg)

	responses := messages.New().
		WithSender(r.agent.Name()).
		WithRunID(msg.RunID).
		WithTurnID(msg.TurnID)

	for _, call := range msg.Payload.ToolCalls {
		if err := ctx.Err(); err != nil {
			return err
		}

		invocation := ToolInvocation{CallID: call.ID, Name: call.Name, Arguments: call.Arguments}
		result, err := l.invoke(ctx, r.agent, call)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			invocation.IsError = true
			invocation.Result = result

			toolErr := &ToolInvocationError{CallID: call.ID, Name: call.Name, Err: err}
			l.logger.WarnContext(ctx, "tool call failed",
				slog.String("tool", call.Name),
				slogx.Error(err),
			)
			r.hook.OnError(ctx, events.Error{
				RunID:     msg.RunID,
				TurnID:    msg.TurnID,
				Err:       toolErr,
				Sender:    r.agent.Name(),
				Timestamp: msg.Timestamp,
			})

			resp := responses.ToolError(call.ID, call.Name, result)
			r.scratchpad.AddToolResponse(resp)
			r.hook.OnToolCallResponse(ctx, resp)
		} else {
			invocation.Result = result
			resp := responses.ToolResponse(call.ID, call.Name, result)
			r.scratchpad.AddToolResponse(resp)
			r.hook.OnToolCallResponse(ctx, resp)
		}
		r.calls = append(r.calls, invocation)
	}
	return nil
}

// invoke runs a tool call. On failure the returned text is what the model is
// told about it.
func (l *Local) invoke(ctx context.Context, agent api.Agent, call messages.ToolCallData) (string, error) {
	def, ok := agent.Tools().Lookup(call.Name)
	if !ok {
		names := agent.Tools().Names()
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", call.Name, strings.Join(names, ", ")),
			fmt.Errorf("%w %q", ErrUnknownTool, call.Name)
	}

	l.logger.DebugContext(ctx, "invoking tool",
		slog.String("tool", call.Name),
		slogx.Truncated("arguments", call.Arguments, 200),
	)
	result, err := def.Invoke(ctx, call.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), err
	}
	return result, nil
}

// commit records the exchange in the history. Tool calls and results stay in
// the scratchpad.
func (r *run) commit(answer messages.Message[messages.AssistantMessage], usage shorttermmemory.Usage) {
	exchange := r.history.Fork()
	exchange.AddUserPrompt(r.query)
	exchange.AddAssistantMessage(answer)
	exchange.AddUsage(&usage)
	r.history.Join(exchange)
}

func (r *run) publishError(ctx context.Context, turnID uuid.UUID, err error) {
	var ee events.Error
	if errors.As(err, &ee) {
		r.hook.OnError(ctx, ee)
		return
	}
	r.hook.OnError(ctx, events.Error{
		RunID:  r.id,
		TurnID: turnID,
		Err:    err,
		Sender: r.agent.Name(),
	})
}
