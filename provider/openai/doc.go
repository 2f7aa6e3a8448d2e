/*
Package openai implements provider.Provider on the OpenAI chat completions API.

	model := openai.GPT4oMini(option.WithAPIKey(key))
	events, err := model.Provider().ChatCompletion(ctx, params)

Models are cached by name and create their client on first use, so building a
model never touches the network. Request options such as the API key or base
URL are fixed by the first call for a given name.

The prompt is sent as a system message followed by the conversation: user
messages, assistant answers, assistant tool calls and tool results. Tools are
advertised as functions with parallel tool calls disabled; the agent loop runs
one tool at a time in the order the model asked for them.

With CompletionParams.Stream the completion is streamed and accumulated with
openai.ChatCompletionAccumulator; the final Response carries the accumulated
message and the usage reported in the last chunk.
*/
package openai
