package metrics

import (
	"time"

	"github.com/emberos/ember/pkg/kernel"
)

// Collector periodically mirrors a kernel snapshot into the Prometheus
// collectors.
type Collector struct {
	kernel   *kernel.Kernel
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector polling k every interval.
func NewCollector(k *kernel.Kernel, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		kernel:   k,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	stats := c.kernel.Snapshot()

	RegistryObjects.Set(float64(stats.Objects))
	TasksRegistered.Set(float64(stats.Tasks))
	QueueDepth.Set(float64(stats.QueueDepth))
	TimeEventsArmed.Set(float64(stats.TimersArmed))

	EventsSentTotal.Set(float64(stats.Sent))
	EventsPublishedTotal.Set(float64(stats.Published))
	EventsCoalescedTotal.Set(float64(stats.Coalesced))
	EventsDroppedTotal.Set(float64(stats.Dropped))
	WaitTimeoutsTotal.Set(float64(stats.WaitTimeouts))

	HeapBytesUsed.WithLabelValues("event").Set(float64(stats.EventHeapUsed))
	HeapBytesTotal.WithLabelValues("event").Set(float64(stats.EventHeapSize))
	HeapBytesUsed.WithLabelValues("store").Set(float64(stats.StoreHeapUsed))
	HeapBytesTotal.WithLabelValues("store").Set(float64(stats.StoreHeapSize))
}
