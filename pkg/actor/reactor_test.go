package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberos/ember/pkg/config"
	"github.com/emberos/ember/pkg/kernel"
	"github.com/emberos/ember/pkg/types"
)

func recvTopic(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case topic := <-ch:
		return topic
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered to reactor handler")
		return ""
	}
}

func TestReactorLifecycle(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	r, err := NewReactor(k, "echo", 2)
	require.NoError(t, err)

	ch := make(chan string, 8)
	r.Start(func(r *Reactor, e *types.Event) {
		ch <- e.Topic
	})
	defer r.Stop()

	// The handler first sees the synthetic enter, then the startup
	// wakeup event.
	assert.Equal(t, types.TopicEnter, recvTopic(t, ch))
	assert.Equal(t, types.TopicNull, recvTopic(t, ch))

	k.Send("echo", "Ping")
	assert.Equal(t, "Ping", recvTopic(t, ch))
}

func TestReactorReceivesPublishes(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	r, err := NewReactor(k, "listener", 2)
	require.NoError(t, err)
	r.Task().Subscribe("Broadcast")

	ch := make(chan string, 8)
	r.Start(func(r *Reactor, e *types.Event) {
		if e.Is("Broadcast") {
			ch <- e.Topic
		}
	})
	defer r.Stop()

	k.Publish("Broadcast")
	assert.Equal(t, "Broadcast", recvTopic(t, ch))
}

func TestReactorDuplicateName(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	_, err = NewReactor(k, "dup", 2)
	require.NoError(t, err)
	_, err = NewReactor(k, "dup", 3)
	assert.Error(t, err)
}

func TestTwoReactorsExchangeEvents(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	ping, err := NewReactor(k, "ping", 2)
	require.NoError(t, err)
	pong, err := NewReactor(k, "pong", 3)
	require.NoError(t, err)

	done := make(chan struct{})
	pong.Start(func(r *Reactor, e *types.Event) {
		if e.Is("Serve") {
			r.Task().Send("ping", "Return")
		}
	})
	ping.Start(func(r *Reactor, e *types.Event) {
		if e.Is("Return") {
			close(done)
		}
	})
	defer ping.Stop()
	defer pong.Stop()

	k.Send("pong", "Serve")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rally never completed")
	}
}
