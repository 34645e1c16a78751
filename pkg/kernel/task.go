package kernel

import (
	"fmt"
	"time"

	"github.com/emberos/ember/pkg/port"
	"github.com/emberos/ember/pkg/types"
)

// msNum30Day bounds wait timeouts (30 days in milliseconds). Time events
// have their own, shorter limit (types.MaxDelayMS).
const msNum30Day uint32 = 2_592_000_000

// Task is a registered recipient: a registry slot, a private wakeup
// semaphore and the receive-gating flags. The goroutine that services the
// task calls the wait methods; any goroutine may use it as a producer.
type Task struct {
	k        *Kernel
	name     string
	id       uint16
	priority uint8
	sem      *port.Semaphore

	// guarded by k.mu
	recvDisabled bool
	waitSpecific bool
	eventWait    string
}

// RegisterTask claims a registry slot for a named task. Task names share
// the topic namespace; duplicates are rejected.
func (k *Kernel) RegisterTask(name string, priority uint8) (*Task, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if name == "" {
		return nil, fmt.Errorf("task name must not be empty")
	}
	if k.tasks >= k.cfg.MaxTasks {
		return nil, fmt.Errorf("task table full (%d tasks)", k.cfg.MaxTasks)
	}
	if k.existed(name) {
		return nil, fmt.Errorf("task %q already registered", name)
	}

	idx := k.insert(name)
	t := &Task{
		k:        k,
		name:     name,
		id:       uint16(idx),
		priority: priority,
		sem:      port.NewSemaphore(),
	}
	k.objects[idx].kind = objTask
	k.objects[idx].task = t
	k.occupy.Set(idx)
	k.tasks++

	k.logger.Debug().Str("task", name).Uint16("id", t.id).Uint8("priority", priority).Msg("Task registered")

	return t, nil
}

// GetTaskID resolves a task name to its registry slot id.
func (k *Kernel) GetTaskID(name string) (uint16, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.getIndex(name)
	if idx == slotNone || k.objects[idx].kind != objTask {
		return 0, fmt.Errorf("task %q not registered", name)
	}
	return uint16(idx), nil
}

// ID returns the task's registry slot id.
func (t *Task) ID() uint16 {
	return t.id
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Priority returns the task's configured priority.
func (t *Task) Priority() uint8 {
	return t.priority
}

// SetRecvDisabled gates event reception. While disabled, sends to this
// task and its share of publishes are silently dropped; this is the
// intended back-pressure mechanism.
func (t *Task) SetRecvDisabled(disabled bool) {
	t.k.mu.Lock()
	defer t.k.mu.Unlock()
	t.recvDisabled = disabled
}

// Delay suspends the calling goroutine for ms milliseconds.
func (t *Task) Delay(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// WaitEvent blocks until an event owned by this task arrives or the
// timeout elapses. On delivery the descriptor is written to e, the task's
// owner bit is cleared and the record is released once all recipients have
// consumed it. Returns false on timeout.
func (t *Task) WaitEvent(e *types.Event, timeoutMS uint32) bool {
	if timeoutMS > msNum30Day && timeoutMS != types.Forever {
		panic(fmt.Sprintf("kernel: wait timeout %d ms out of range", timeoutMS))
	}

	k := t.k
	if !t.sem.Take(timeoutMS) {
		k.mu.Lock()
		k.timeouts++
		k.mu.Unlock()
		return false
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	for r := k.queue; r != nil; r = r.next {
		if !r.owner.Test(int(t.id)) {
			continue
		}

		obj := &k.objects[r.id]
		if obj.kind != objEvent {
			panic(fmt.Sprintf("kernel: queued record for non-event slot %d", r.id))
		}
		evt := obj.evt

		e.Topic = obj.key
		e.ID = r.id
		switch evt.attr & types.AttrKindMask {
		case types.AttrValue:
			e.Size = evt.size
		case types.AttrStream:
			e.Size = uint16(evt.stream.Size())
		default:
			e.Size = 0
		}

		r.owner.Clear(int(t.id))
		if r.owner.None() {
			evt.head = nil
			k.queueDelete(r)
		} else {
			k.ownerGlobal()
		}
		return true
	}
	return false
}

// WaitSpecificEvent waits for one particular topic. While waiting, events
// on other topics are withheld from this task. Returns true only when the
// delivered topic matches.
func (t *Task) WaitSpecificEvent(e *types.Event, topic string, timeoutMS uint32) bool {
	k := t.k

	k.mu.Lock()
	k.eventSlotAt(topic)
	t.waitSpecific = true
	t.eventWait = topic
	k.mu.Unlock()

	ok := t.WaitEvent(e, timeoutMS)

	k.mu.Lock()
	t.waitSpecific = false
	t.eventWait = ""
	k.mu.Unlock()

	return ok && e.Topic == topic
}
