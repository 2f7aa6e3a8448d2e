// Package executor runs the agent loop for one query.
//
// Each turn renders the prompt from the agent's template, the conversation
// history, the query and the scratchpad of this run, then asks the model for the
// next step. A final answer ends the run. Tool calls are executed one at a time
// in the order the model requested them and their results are appended to the
// scratchpad before the next turn.
//
// Tool failures never abort a run: an unknown tool name or a tool error is fed
// back to the model as an error result and reported to the hook.
//
//	outcome, err := executor.NewLocal().Run(ctx, executor.RunCommand{
//		Agent:   agent,
//		History: history,
//		Query:   "the history of the printing press",
//		Hook:    events.Logging(slog.Default()),
//	})
package executor
