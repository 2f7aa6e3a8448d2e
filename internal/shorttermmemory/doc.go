// Package shorttermmemory keeps the messages of a conversation in order.
//
// The agent loop uses two aggregators per query. The chat history lives as long
// as the assistant and only ever receives user prompts and final answers. The
// scratchpad is forked fresh for every query; tool calls and tool results go
// there and it is thrown away once the model produces its answer:
//
//	scratchpad := New()
//	scratchpad.AddToolCall(call)
//	scratchpad.AddToolResponse(result)
//	// ...
//	history.AddUserPrompt(prompt)
//	history.AddAssistantMessage(answer)
//
// Token usage reported by the backend is accumulated next to the messages so a
// run can report what it cost.
//
// Aggregators are not safe for concurrent use.
package shorttermmemory
