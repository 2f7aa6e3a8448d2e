package shorttermmemory

import (
	"slices"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/IronClad1607/research-agent/pkg/uuidx"
	"github.com/google/uuid"
)

// AggregatedMessages is an ordered list of conversation messages.
type AggregatedMessages []messages.Message[messages.ModelMessage]

func (a AggregatedMessages) Len() int {
	return len(a)
}

// New returns an empty aggregator with a fresh identifier.
func New() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: make(AggregatedMessages, 0),
	}
}

// Aggregator collects messages and token usage.
type Aggregator struct {
	id       uuid.UUID
	messages AggregatedMessages
	initLen  int // length at fork time; Join appends what came after it
	usage    Usage
}

func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

func (a *Aggregator) Len() int {
	return a.messages.Len()
}

// TurnLen counts the messages added since the aggregator was forked.
func (a *Aggregator) TurnLen() int {
	return len(a.messages) - a.initLen
}

// Messages returns a copy of the stored messages.
func (a *Aggregator) Messages() AggregatedMessages {
	return slices.Clone(a.messages)
}

// TurnMessages returns a copy of the messages added since the fork.
func (a *Aggregator) TurnMessages() AggregatedMessages {
	return slices.Clone(a.messages[a.initLen:])
}

func (a *Aggregator) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	a.add(messages.EraseType(m))
}

func (a *Aggregator) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	a.add(messages.EraseType(m))
}

func (a *Aggregator) AddToolCall(m messages.Message[messages.ToolCallMessage]) {
	a.add(messages.EraseType(m))
}

func (a *Aggregator) AddToolResponse(m messages.Message[messages.ToolResponse]) {
	a.add(messages.EraseType(m))
}

func (a *Aggregator) add(m messages.Message[messages.ModelMessage]) {
	a.messages = append(a.messages, m)
}

func (a *Aggregator) Usage() Usage {
	return a.usage
}

func (a *Aggregator) AddUsage(u *Usage) {
	a.usage.AddUsage(u)
}

// Fork returns a new aggregator that starts with a copy of the current messages.
// Only messages added after the fork are carried back by Join.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: slices.Clone(a.messages),
		initLen:  a.Len(),
	}
}

// Join appends the messages b gained since it was forked and adds up usage.
//
//	original := New()             // [1,2]
//	forked := original.Fork()     // [1,2], initLen=2
//	original.Add(msg3)            // [1,2,3]
//	forked.Add(msg4)              // [1,2,4]
//	original.Join(forked)         // [1,2,3,4]
func (a *Aggregator) Join(b *Aggregator) {
	a.messages = append(a.messages, b.messages[b.initLen:]...)
	a.usage.AddUsage(&b.usage)
}
