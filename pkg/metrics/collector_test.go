package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberos/ember/pkg/config"
	"github.com/emberos/ember/pkg/kernel"
)

func TestCollectMirrorsSnapshot(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	a, err := k.RegisterTask("A", 2)
	require.NoError(t, err)
	a.Subscribe("X")
	k.Publish("X")
	k.PublishDelay("T", 1000)

	c := NewCollector(k, time.Second)
	c.collect()

	assert.Equal(t, float64(1), testutil.ToFloat64(TasksRegistered))
	assert.Equal(t, float64(1), testutil.ToFloat64(QueueDepth))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsPublishedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(TimeEventsArmed))
	assert.Equal(t, float64(5120), testutil.ToFloat64(HeapBytesTotal.WithLabelValues("event")))
	assert.Greater(t, testutil.ToFloat64(HeapBytesUsed.WithLabelValues("event")), float64(0))
}

func TestCollectorStartStop(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	c := NewCollector(k, 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
}

func TestNewCollectorDefaultsInterval(t *testing.T) {
	k, err := kernel.New(config.Default())
	require.NoError(t, err)

	c := NewCollector(k, 0)
	assert.Equal(t, 15*time.Second, c.interval)
}
