package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry metrics
	RegistryObjects = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_registry_objects",
			Help: "Number of occupied registry slots (topics, tasks, store keys)",
		},
	)

	TasksRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_tasks_registered",
			Help: "Number of registered tasks",
		},
	)

	// Event bus metrics
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_event_queue_depth",
			Help: "Number of event records currently queued",
		},
	)

	EventsSentTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_events_sent_total",
			Help: "Total number of point-to-point sends accepted",
		},
	)

	EventsPublishedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_events_published_total",
			Help: "Total number of publishes accepted",
		},
	)

	EventsCoalescedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_events_coalesced_total",
			Help: "Total number of deliveries folded into an undrained value/stream record",
		},
	)

	EventsDroppedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_events_dropped_total",
			Help: "Total number of sends and publishes that reached no recipient (receive gating, specific-wait filtering or no subscribers)",
		},
	)

	WaitTimeoutsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_wait_timeouts_total",
			Help: "Total number of wait calls that timed out without an event",
		},
	)

	// Time-event metrics
	TimeEventsArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ember_time_events_armed",
			Help: "Number of armed time events",
		},
	)

	// Heap metrics
	HeapBytesUsed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ember_heap_bytes_used",
			Help: "Bytes in use per kernel heap, headers included",
		},
		[]string{"heap"},
	)

	HeapBytesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ember_heap_bytes_total",
			Help: "Total byte budget per kernel heap",
		},
		[]string{"heap"},
	)
)

func init() {
	prometheus.MustRegister(RegistryObjects)
	prometheus.MustRegister(TasksRegistered)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(EventsSentTotal)
	prometheus.MustRegister(EventsPublishedTotal)
	prometheus.MustRegister(EventsCoalescedTotal)
	prometheus.MustRegister(EventsDroppedTotal)
	prometheus.MustRegister(WaitTimeoutsTotal)
	prometheus.MustRegister(TimeEventsArmed)
	prometheus.MustRegister(HeapBytesUsed)
	prometheus.MustRegister(HeapBytesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr. It blocks.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
