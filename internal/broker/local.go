package broker

import (
	"context"
	"sync"
	"time"

	"github.com/IronClad1607/research-agent/events"
	"github.com/IronClad1607/research-agent/pkg/uuidx"
	"github.com/alphadose/haxmap"
)

const (
	defaultSlowSubscriberTimeout = 100 * time.Millisecond
	subscriptionBuffer           = 50
)

type LocalBroker struct {
	topics                *haxmap.Map[string, *localTopic]
	slowSubscriberTimeout time.Duration
}

// Local returns an in-process broker. Subscribers that cannot keep up are
// dropped after the slow subscriber timeout.
func Local() *LocalBroker {
	return &LocalBroker{
		topics:                haxmap.New[string, *localTopic](),
		slowSubscriberTimeout: defaultSlowSubscriberTimeout,
	}
}

// WithSlowSubscriberTimeout configures the timeout for detecting slow subscribers.
func (b *LocalBroker) WithSlowSubscriberTimeout(timeout time.Duration) *LocalBroker {
	b.slowSubscriberTimeout = timeout
	return b
}

func (b *LocalBroker) Topic(_ context.Context, id string) Topic {
	t, _ := b.topics.GetOrCompute(id, func() *localTopic {
		return &localTopic{
			id:                    id,
			subscriptions:         haxmap.New[string, *localSubscription](),
			slowSubscriberTimeout: b.slowSubscriberTimeout,
		}
	})
	return t
}

type localTopic struct {
	id                    string
	subscriptions         *haxmap.Map[string, *localSubscription]
	slowSubscriberTimeout time.Duration
}

func (t *localTopic) Publish(ctx context.Context, event events.Event) error {
	var err error
	t.subscriptions.ForEach(func(_ string, sub *localSubscription) bool {
		if sub == nil {
			return true
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return false
		case <-sub.done:
			return true
		case <-sub.ctx.Done():
			sub.Unsubscribe()
			return true
		default:
		}

		timer := time.NewTimer(t.slowSubscriberTimeout)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return false
		case <-sub.done:
		case <-sub.ctx.Done():
			sub.Unsubscribe()
		case sub.channel <- event:
		case <-timer.C:
			sub.Unsubscribe()
		}
		return true
	})
	return err
}

func (t *localTopic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}

	id := uuidx.NewString()
	sub := &localSubscription{
		id:       id,
		ctx:      ctx,
		channel:  make(chan events.Event, subscriptionBuffer),
		done:     make(chan struct{}),
		draining: make(chan struct{}),
		finished: make(chan struct{}),
		onClose:  func() { t.subscriptions.Del(id) },
		hook:     hook,
	}
	t.subscriptions.Set(id, sub)
	go sub.forwardToHook()
	return sub, nil
}

type localSubscription struct {
	id        string
	ctx       context.Context
	channel   chan events.Event
	done      chan struct{}
	draining  chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	drainOnce sync.Once
	onClose   func()
	hook      events.Hook
}

func (s *localSubscription) ID() string {
	return s.id
}

// Unsubscribe stops delivery. Events already buffered are discarded.
func (s *localSubscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.done)
	})
}

func (s *localSubscription) Drain(ctx context.Context) error {
	s.drainOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.draining)
	})
	defer s.Unsubscribe()

	select {
	case <-s.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *localSubscription) forwardToHook() {
	defer close(s.finished)
	for {
		select {
		case <-s.done:
			return
		case <-s.ctx.Done():
			s.Unsubscribe()
			return
		case <-s.draining:
			for {
				select {
				case <-s.done:
					return
				case event := <-s.channel:
					events.Dispatch(s.ctx, s.hook, event)
				default:
					return
				}
			}
		case event := <-s.channel:
			select {
			case <-s.done:
				return
			default:
			}
			events.Dispatch(s.ctx, s.hook, event)
		}
	}
}
