package kernel

import (
	"fmt"

	"github.com/emberos/ember/pkg/mask"
	"github.com/emberos/ember/pkg/types"
)

type giveKind uint8

const (
	giveSend giveKind = iota
	givePublish
)

// Send delivers topic to the named task.
func (k *Kernel) Send(task, topic string) {
	k.give(nil, task, slotNone, giveSend, topic)
}

// SendByID delivers topic to the task in registry slot id.
func (k *Kernel) SendByID(id uint16, topic string) {
	k.give(nil, "", int(id), giveSend, topic)
}

// Publish delivers topic to every subscriber.
func (k *Kernel) Publish(topic string) {
	k.give(nil, "", slotNone, givePublish, topic)
}

// Send delivers topic to the named task, excluding the caller from the
// wake phase.
func (t *Task) Send(task, topic string) {
	t.k.give(t, task, slotNone, giveSend, topic)
}

// SendByID delivers topic to the task in registry slot id.
func (t *Task) SendByID(id uint16, topic string) {
	t.k.give(t, "", int(id), giveSend, topic)
}

// Publish delivers topic to every subscriber, excluding the caller from
// the wake phase.
func (t *Task) Publish(topic string) {
	t.k.give(t, "", slotNone, givePublish, topic)
}

// give is the unified delivery path for send and publish. All phases run
// inside the critical section; semaphore releases only unblock, never
// wait, so they are safe under the lock.
func (k *Kernel) give(from *Task, taskName string, taskID int, kind giveKind, topic string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Phase 1: resolve the target mask.
	var target mask.Mask
	if kind == giveSend {
		tID := taskID
		if tID == slotNone {
			tID = k.getIndex(taskName)
			if tID == slotNone {
				panic(fmt.Sprintf("kernel: send to unknown task %q (topic %q)", taskName, topic))
			}
		}
		if tID < 0 || tID >= len(k.objects) || k.objects[tID].kind != objTask {
			panic(fmt.Sprintf("kernel: send target slot %d is not a task (topic %q)", tID, topic))
		}
		if k.objects[tID].task.recvDisabled {
			k.dropped++
			return
		}
		target.Set(tID)
	}

	// Phase 2: resolve the event slot, inserting a plain topic if new.
	eID := k.eventSlotAt(topic)
	evt := k.objects[eID].evt
	eType := evt.attr & types.AttrKindMask

	if kind == givePublish {
		target = evt.sub
		k.occupy.ForEach(func(id int) {
			if target.Test(id) && k.objects[id].task.recvDisabled {
				target.Clear(id)
			}
		})
		if target.None() {
			k.dropped++
			return
		}
	}

	// Phase 3: withhold from tasks waiting for a different specific topic.
	k.occupy.ForEach(func(id int) {
		if !target.Test(id) {
			return
		}
		task := k.objects[id].task
		if task.waitSpecific && task.eventWait != topic {
			target.Clear(id)
		}
	})
	if target.None() {
		k.dropped++
		return
	}

	// Phase 4: wake every remaining recipient except the caller.
	k.occupy.ForEach(func(id int) {
		if !target.Test(id) {
			return
		}
		task := k.objects[id].task
		if task == from {
			return
		}
		if !task.waitSpecific || task.eventWait == topic {
			task.sem.Release()
		}
	})

	// Phase 5: materialize or coalesce the record.
	switch eType {
	case types.AttrTopic:
		r := k.newRecord(uint16(eID), &target)
		k.queueAppend(r)
	case types.AttrValue, types.AttrStream:
		if evt.head == nil {
			r := k.newRecord(uint16(eID), &target)
			evt.head = r
			k.queueAppend(r)
		} else {
			evt.head.owner.Or(&target)
			evt.head.time = k.clock.Now()
			k.coalesced++
		}
	default:
		panic(fmt.Sprintf("kernel: topic %q has invalid attribute %#x", topic, evt.attr))
	}

	// Phase 6: fold the delivery into the cached owner union.
	k.gOwner.Or(&target)

	if kind == giveSend {
		k.sent++
	} else {
		k.published++
	}

	k.logger.Debug().
		Str("topic", topic).
		Int("recipients", target.Count()).
		Bool("publish", kind == givePublish).
		Msg("Event delivered")
}

// Subscribe adds the task to topic's subscriber set, inserting the topic
// if absent. A stream topic accepts at most one subscriber.
func (t *Task) Subscribe(topic string) {
	k := t.k
	k.mu.Lock()
	defer k.mu.Unlock()
	k.subscribe(t, topic)
}

// subscribe is Subscribe with the lock held; the time-event scheduler uses
// it from SendDelay/SendPeriod.
func (k *Kernel) subscribe(t *Task, topic string) {
	idx := k.getIndex(topic)
	if idx == slotNone {
		idx = k.insert(topic)
		k.objects[idx].kind = objEvent
		k.objects[idx].evt = &eventSlot{attr: types.AttrTopic}
	} else {
		if k.objects[idx].kind != objEvent {
			panic(fmt.Sprintf("kernel: subscribe target %q is not an event topic", topic))
		}
		evt := k.objects[idx].evt
		if evt.attr&types.AttrKindMask == types.AttrStream && evt.sub.Any() {
			panic(fmt.Sprintf("kernel: stream topic %q already has a subscriber", topic))
		}
	}
	k.objects[idx].evt.sub.Set(int(t.id))
}

// Unsubscribe removes the task from topic's subscriber set. Stream topics
// keep their single subscriber for life.
func (t *Task) Unsubscribe(topic string) {
	k := t.k
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.getIndex(topic)
	if idx == slotNone || k.objects[idx].kind != objEvent {
		panic(fmt.Sprintf("kernel: unsubscribe from unknown topic %q", topic))
	}
	evt := k.objects[idx].evt
	if evt.attr&types.AttrKindMask == types.AttrStream {
		panic(fmt.Sprintf("kernel: stream topic %q cannot be unsubscribed", topic))
	}
	evt.sub.Clear(int(t.id))
}
