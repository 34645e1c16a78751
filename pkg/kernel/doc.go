/*
Package kernel implements the event-dispatch core of Ember: a single hash
table of topic-named objects (tasks, events, store keys), an event queue
with per-record owner bitmaps, the publish/send/subscribe bus, the
time-event scheduler and the integrated data store.

# Architecture

	producer ──send/publish──► give()
	                             │  resolve target mask
	                             │  resolve topic slot (insert if new)
	                             │  withhold specific-waiters
	                             │  release recipient semaphores
	                             │  append or coalesce queue record
	                             ▼
	                       event queue ◄──wait──── recipient task
	                             │                    │
	                             │ owner bit cleared  │
	                             └── record freed when all bits clear

Plain topics append one record per delivery; value and stream topics keep
at most one undelivered record whose owner mask accumulates recipients and
whose payload lives in the data store (last writer wins). The cached
gOwner mask always equals the union of all queued owner masks.

# Concurrency

One mutex is the global critical section covering the registry, queue,
time-event table, both heaps and all owner masks. The only blocking points
are the wait methods on Task, which park on the task's private semaphore,
and Task.Delay, which sleeps.
Producer entry points (Send, Publish, the time-event arms and cancel) only
unblock and never wait, so they are callable from any goroutine.
*/
package kernel
