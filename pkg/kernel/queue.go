package kernel

import (
	"fmt"

	"github.com/emberos/ember/pkg/mask"
)

// recordSize is the event-heap cost of one queued record. It mirrors the
// footprint of the record fields so the heap budget bounds queue growth.
const recordSize = 32

// record is one queue node: which topic fired and which tasks still have
// to observe it.
type record struct {
	next, prev *record
	owner      mask.Mask
	time       uint32
	id         uint16
	heapOff    uint32
}

// newRecord reserves record space in the event heap and links nothing yet.
// Event-heap exhaustion is a sizing error. Lock held.
func (k *Kernel) newRecord(id uint16, owner *mask.Mask) *record {
	off, err := k.eheap.Alloc(recordSize)
	if err != nil {
		panic(fmt.Sprintf("kernel: event heap exhausted for topic slot %d: %v", id, err))
	}
	r := &record{
		id:      id,
		time:    k.clock.Now(),
		heapOff: off,
	}
	r.owner.Or(owner)
	return r
}

// queueAppend links r at the tail. Lock held.
func (k *Kernel) queueAppend(r *record) {
	r.next = nil
	if k.queue == nil {
		r.prev = nil
		k.queue = r
		return
	}
	tail := k.queue
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = r
	r.prev = tail
}

// queueDelete unlinks r, returns its heap reservation and recomputes the
// cached owner union. Lock held.
func (k *Kernel) queueDelete(r *record) {
	if r.prev == nil {
		k.queue = r.next
	} else {
		r.prev.next = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.next = nil
	r.prev = nil

	if err := k.eheap.Free(r.heapOff); err != nil {
		panic(fmt.Sprintf("kernel: freeing record for slot %d: %v", r.id, err))
	}

	k.ownerGlobal()
}

// ownerGlobal recomputes gOwner as the union of every queued record's
// owner mask. Lock held.
func (k *Kernel) ownerGlobal() {
	k.gOwner.Reset()
	for r := k.queue; r != nil; r = r.next {
		k.gOwner.Or(&r.owner)
	}
}

// queueDepth counts queued records. Lock held.
func (k *Kernel) queueDepth() int {
	n := 0
	for r := k.queue; r != nil; r = r.next {
		n++
	}
	return n
}
