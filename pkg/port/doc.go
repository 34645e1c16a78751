/*
Package port is the hosted board-support layer: the primitives the kernel
consumes from whatever scheduler it is wired to. On the Go runtime that is
a binary semaphore built on a one-slot channel (task wakeup) and a
monotonic millisecond clock (time events). Tests substitute ManualClock to
drive the time-event scheduler deterministically.
*/
package port
