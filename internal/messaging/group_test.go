package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zx8086/url-shortener/internal/events"
	"github.com/zx8086/url-shortener/internal/messaging"
	"go.uber.org/zap"
)

type fakeRunnable struct {
	topic       string
	started     bool
	stopped     bool
	startErr    error
	shutdownErr error
}

func (f *fakeRunnable) Topic() string { return f.topic }

func (f *fakeRunnable) Start(_ context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	f.started = true

	return nil
}

func (f *fakeRunnable) Shutdown() error {
	f.stopped = true

	return f.shutdownErr
}

type anonymousRunnable struct {
	startErr error
}

func (a *anonymousRunnable) Start(_ context.Context) error { return a.startErr }
func (a *anonymousRunnable) Shutdown() error               { return nil }

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts every consumer", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		warmer := &fakeRunnable{topic: events.TopicMappingCreated}
		audit := &fakeRunnable{topic: "mapping.audit"}

		group.Add(warmer)
		group.Add(audit)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, warmer.started)
		assert.True(t, audit.started)
	})

	t.Run("stops started consumers when a later one fails", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		warmer := &fakeRunnable{topic: events.TopicMappingCreated}
		broken := &fakeRunnable{topic: "mapping.audit", startErr: errors.New("subscribe refused")}

		group.Add(warmer)
		group.Add(broken)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "mapping.audit")
		assert.Contains(t, err.Error(), "subscribe refused")
		assert.True(t, warmer.stopped)
		assert.False(t, broken.started)
	})

	t.Run("names consumers without a topic by position", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		group.Add(&anonymousRunnable{startErr: errors.New("boom")})

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "#0")
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("stops consumers and closes the subscriber", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		warmer := &fakeRunnable{topic: events.TopicMappingCreated}

		group.Add(warmer)
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		assert.True(t, warmer.stopped)
		assert.True(t, sub.closed)
	})

	t.Run("reports every failure but still stops all", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		first := &fakeRunnable{topic: "a", shutdownErr: errors.New("drain timeout")}
		second := &fakeRunnable{topic: "b", shutdownErr: errors.New("ack lost")}

		group.Add(first)
		group.Add(second)
		_ = group.Start(context.Background())

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "drain timeout")
		assert.Contains(t, err.Error(), "ack lost")
		assert.True(t, first.stopped)
		assert.True(t, second.stopped)
		assert.True(t, sub.closed)
	})
}
