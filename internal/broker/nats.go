package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/pkg/slogx"
	"github.com/IronClad1607/research-agent/pkg/uuidx"
	"github.com/alphadose/haxmap"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to the topic id to form the NATS subject.
const DefaultSubjectPrefix = "research.events"

type NATSBroker struct {
	client *nats.Conn
	prefix string
	topics *haxmap.Map[string, *natsTopic]
}

// NATS returns a broker publishing events as JSON on
// "<DefaultSubjectPrefix>.<topic id>".
func NATS(client *nats.Conn) *NATSBroker {
	return &NATSBroker{
		client: client,
		prefix: DefaultSubjectPrefix,
		topics: haxmap.New[string, *natsTopic](),
	}
}

// WithSubjectPrefix replaces the subject prefix for topics created afterwards.
func (b *NATSBroker) WithSubjectPrefix(prefix string) *NATSBroker {
	b.prefix = prefix
	return b
}

func (b *NATSBroker) Topic(_ context.Context, id string) Topic {
	top, _ := b.topics.GetOrCompute(id, func() *natsTopic {
		return &natsTopic{
			subject: b.prefix + "." + id,
			client:  b.client,
		}
	})
	return top
}

type natsTopic struct {
	client  *nats.Conn
	subject string
}

func (t *natsTopic) Subject() string {
	return t.subject
}

func (t *natsTopic) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	eb, err := events.ToJSON(event)
	if err != nil {
		return err
	}
	return t.client.Publish(t.subject, eb)
}

func (t *natsTopic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}

	ch := make(chan events.Event, subscriptionBuffer)
	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		event, err := events.FromJSON(msg.Data)
		if err != nil {
			slog.Error("failed to unmarshal event", slogx.LoggerName("broker"), slogx.Error(err))
			return
		}

		select {
		case ch <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, err
	}
	if err := t.client.Flush(); err != nil {
		_ = nsub.Unsubscribe()
		return nil, err
	}

	sub := &natsSubscription{
		id:       uuidx.NewString(),
		sub:      nsub,
		done:     make(chan struct{}),
		draining: make(chan struct{}),
		finished: make(chan struct{}),
	}
	go sub.forwardToHook(ctx, ch, hook)
	return sub, nil
}

type natsSubscription struct {
	id        string
	sub       *nats.Subscription
	done      chan struct{}
	draining  chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	drainOnce sync.Once
}

func (n *natsSubscription) ID() string {
	return n.id
}

func (n *natsSubscription) Unsubscribe() {
	n.closeOnce.Do(func() {
		close(n.done)
		if !n.sub.IsValid() {
			return
		}
		if err := n.sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe", slogx.LoggerName("broker"), slogx.Error(err), slog.String("subscription", n.id))
		}
	})
}

// Drain lets the server flush pending messages to this subscription before
// forwarding what was received.
func (n *natsSubscription) Drain(ctx context.Context) error {
	defer n.Unsubscribe()
	if err := n.sub.Drain(); err != nil {
		return err
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for n.sub.IsValid() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	n.drainOnce.Do(func() { close(n.draining) })
	select {
	case <-n.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *natsSubscription) forwardToHook(ctx context.Context, ch <-chan events.Event, hook events.Hook) {
	defer close(n.finished)
	for {
		select {
		case <-n.done:
			return
		case <-ctx.Done():
			n.Unsubscribe()
			return
		case <-n.draining:
			for {
				select {
				case event := <-ch:
					events.Dispatch(ctx, hook, event)
				default:
					return
				}
			}
		case event := <-ch:
			events.Dispatch(ctx, hook, event)
		}
	}
}
