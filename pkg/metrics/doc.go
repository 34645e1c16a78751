/*
Package metrics exposes kernel observability through Prometheus: registry
occupancy, event queue depth, delivery counters, heap usage and the armed
time-event count. A Collector polls Kernel.Snapshot on an interval and
mirrors it into package-level collectors; Serve exposes /metrics.
*/
package metrics
