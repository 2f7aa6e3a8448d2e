package broker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/IronClad1607/research-agent/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowHook struct {
	*recordingHook
	delay time.Duration
}

func (h *slowHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	time.Sleep(h.delay)
	h.recordingHook.OnAssistantMessage(ctx, msg)
}

func TestLocal_DropsSlowSubscribers(t *testing.T) {
	ctx := context.Background()
	topic := Local().WithSlowSubscriberTimeout(10*time.Millisecond).Topic(ctx, "slow")

	recorder := &slowHook{recordingHook: &recordingHook{}, delay: 200 * time.Millisecond}
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	const numEvents = subscriptionBuffer + 10
	for i := range numEvents {
		require.NoError(t, topic.Publish(ctx, assistantEvent(fmt.Sprintf("message-%d", i))))
	}

	time.Sleep(300 * time.Millisecond)
	assert.Less(t, recorder.assistantCount(), numEvents)
	assert.Zero(t, topic.(*localTopic).subscriptions.Len())
}

func TestLocal_PublishHonoursContext(t *testing.T) {
	topic := Local().Topic(context.Background(), "cancelled")
	sub, err := topic.Subscribe(context.Background(), &recordingHook{})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, topic.Publish(ctx, assistantEvent("x")), context.Canceled)
}

func TestLocal_Drain(t *testing.T) {
	t.Run("gives up when the hook is too slow", func(t *testing.T) {
		topic := Local().WithSlowSubscriberTimeout(time.Second).Topic(context.Background(), "slow-drain")
		recorder := &slowHook{recordingHook: &recordingHook{}, delay: 100 * time.Millisecond}
		sub, err := topic.Subscribe(context.Background(), recorder)
		require.NoError(t, err)

		for i := range 5 {
			require.NoError(t, topic.Publish(context.Background(), assistantEvent(fmt.Sprintf("message-%d", i))))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, sub.Drain(ctx), context.DeadlineExceeded)
		assert.Less(t, recorder.assistantCount(), 5)
		assert.Zero(t, topic.(*localTopic).subscriptions.Len())
	})

	t.Run("returns once the subscriber context is done", func(t *testing.T) {
		topic := Local().Topic(context.Background(), "cancelled-drain")
		subCtx, cancel := context.WithCancel(context.Background())
		sub, err := topic.Subscribe(subCtx, &recordingHook{})
		require.NoError(t, err)
		cancel()

		ctx, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		assert.NoError(t, sub.Drain(ctx))
	})
}

func TestNATS_Subject(t *testing.T) {
	b := NATS(nil)
	topic := b.Topic(context.Background(), "run-1")
	assert.Equal(t, "research.events.run-1", topic.(*natsTopic).Subject())

	other := NATS(nil).WithSubjectPrefix("custom").Topic(context.Background(), "run-1")
	assert.Equal(t, "custom.run-1", other.(*natsTopic).Subject())
}
