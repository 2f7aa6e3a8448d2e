// Package messages defines the conversation model exchanged between the agent
// loop and a model backend.
//
// A conversation is an ordered list of Message envelopes. The payload of each
// envelope is one of four kinds:
//
//   - UserMessage: the research query typed by the user
//   - AssistantMessage: a final answer produced by the model
//   - ToolCallMessage: a request from the model to run one or more tools
//   - ToolResponse: the text a tool returned for one of those requests
//
// UserMessage and ToolResponse travel towards the model (Request), while
// AssistantMessage and ToolCallMessage come back from it (Response). Code that
// stores mixed histories works with Message[ModelMessage] and switches on the
// payload type:
//
//	for _, msg := range thread.Messages() {
//	    switch p := msg.Payload.(type) {
//	    case messages.ToolCallMessage:
//	        // p.ToolCalls
//	    case messages.AssistantMessage:
//	        // p.Content
//	    }
//	}
package messages
