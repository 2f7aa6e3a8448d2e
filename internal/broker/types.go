package broker

import (
	"context"
	"errors"

	"github.com/IronClad1607/research-agent/events"
)

// ErrHookRequired is returned when subscribing without a hook.
var ErrHookRequired = errors.New("hook is required")

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
	// Drain stops accepting events and returns once the events already
	// received have reached the hook, or when ctx is done.
	Drain(context.Context) error
}
