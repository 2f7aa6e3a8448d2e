// Package events reports what happens during a research run.
//
// The agent loop calls a Hook at every step: the user prompt, each tool call
// the model asks for, each tool result, the final answer, and failures. Hooks
// run synchronously on the loop goroutine and must not block for long.
//
// Events are the serialisable form of the same steps. Each variant carries the
// run and turn identifiers, the sender and a timestamp, and encodes to a JSON
// object with a "type" discriminator:
//
//	{"type":"request","run_id":"…","turn_id":"…","message":{"content":"mars"},"sender":"user"}
//
// ToJSON and FromJSON convert between the two so events can cross a message
// broker; see internal/broker.
package events
