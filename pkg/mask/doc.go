// Package mask implements the owner bitset: which registry slots (tasks)
// still have to observe a queued event, and which slots hold tasks at all.
package mask
