/*
Package anthropic implements provider.Provider on the Anthropic Messages API.

	model := anthropic.Model("claude-3-5-haiku-latest", option.WithAPIKey(key))
	events, err := model.Provider().ChatCompletion(ctx, params)

The rendered instructions become the system blocks. Conversation messages are
mapped onto alternating user and assistant turns: tool calls become tool_use
blocks of an assistant turn and tool results become tool_result blocks of the
following user turn. Consecutive messages of the same role are merged into one
turn.

A reply containing any tool_use block is reported as a tool call; otherwise the
text blocks are joined into the final answer. Streaming accumulates the events
into a message and reports text as it grows.
*/
package anthropic
