// Package heap implements the fixed-budget first-fit block allocator the
// kernel instantiates twice: once for event records, once for data-store
// payloads. Exhaustion of the event instance is a sizing error, not a
// runtime condition.
package heap
