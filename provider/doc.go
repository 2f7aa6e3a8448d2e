// Package provider is the boundary between the agent loop and a model backend.
//
// A Provider receives the full prompt of one turn and answers on a channel of
// StreamEvent values. Every call ends with exactly one of:
//   - Response[messages.AssistantMessage]: the model's final answer
//   - Response[messages.ToolCallMessage]: the model wants tools run first
//   - Error: the backend failed or the context ended
//
// and the channel is closed afterwards. In streaming mode the terminal event is
// preceded by a start Delim, any number of Chunk values and an end Delim.
//
//	events, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
//	    RunID:  runID,
//	    TurnID: turnID,
//	    Prompt: tmpl.Build(history, query, scratchpad),
//	    Model:  model,
//	    Tools:  agent.Tools().Definitions(),
//	})
//	if err != nil {
//	    return err
//	}
//	for event := range events {
//	    switch e := event.(type) {
//	    case provider.Response[messages.AssistantMessage]:
//	        // done
//	    case provider.Response[messages.ToolCallMessage]:
//	        // run tools
//	    case provider.Error:
//	        return e
//	    }
//	}
//
// Backends live in the openai and anthropic subpackages.
package provider
