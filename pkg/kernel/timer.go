package kernel

import (
	"fmt"
	"math"

	"github.com/emberos/ember/pkg/types"
)

// Time-event units. A delay is stored in the finest unit whose threshold
// still covers it, so the period fits the 16-bit field.
const (
	unitMS uint8 = iota
	unit100MS
	unitSec
	unitMin
)

var (
	timerThreshold = [4]uint32{60_000, 6_000_000, 57_600_000, 1_296_000_000}
	timerUnitMS    = [4]uint32{1, 100, 1000, 60_000}
)

// timeEvent is one armed entry of the time-event table.
type timeEvent struct {
	topic   string
	oneShot bool
	unit    uint8
	period  uint16
	timeout uint32 // absolute, milliseconds
}

// PublishDelay publishes topic once after ms milliseconds.
func (k *Kernel) PublishDelay(topic string, ms uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pubTime(topic, ms, true)
}

// PublishPeriod publishes topic every ms milliseconds.
func (k *Kernel) PublishPeriod(topic string, ms uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pubTime(topic, ms, false)
}

// SendDelay subscribes the named task to topic and schedules a one-shot
// publish after ms milliseconds. The topic must be a plain topic.
func (k *Kernel) SendDelay(task, topic string, ms uint32) {
	k.sendTime(task, topic, ms, true)
}

// SendPeriod subscribes the named task to topic and schedules a periodic
// publish every ms milliseconds.
func (k *Kernel) SendPeriod(task, topic string, ms uint32) {
	k.sendTime(task, topic, ms, false)
}

func (k *Kernel) sendTime(task, topic string, ms uint32, oneShot bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	tID := k.getIndex(task)
	if tID == slotNone || k.objects[tID].kind != objTask {
		panic(fmt.Sprintf("kernel: scheduled send to unknown task %q", task))
	}

	eID := k.eventSlotAt(topic)
	if k.objects[eID].evt.attr&types.AttrKindMask != types.AttrTopic {
		panic(fmt.Sprintf("kernel: scheduled send topic %q must be a plain topic", topic))
	}

	k.subscribe(k.objects[tID].task, topic)
	k.pubTime(topic, ms, oneShot)
}

// pubTime arms a time event. Lock held. Out-of-range delays and duplicate
// topics are sizing/programming errors.
func (k *Kernel) pubTime(topic string, ms uint32, oneShot bool) {
	if ms == 0 {
		panic(fmt.Sprintf("kernel: zero delay for time event %q", topic))
	}
	if ms > timerThreshold[unitMin] {
		panic(fmt.Sprintf("kernel: delay %d ms for %q above the %d ms limit", ms, topic, timerThreshold[unitMin]))
	}
	if k.timerCount >= len(k.timers) {
		panic(fmt.Sprintf("kernel: time-event table full (%d entries)", len(k.timers)))
	}
	for i := 0; i < k.timerCount; i++ {
		if k.timers[i].topic == topic {
			panic(fmt.Sprintf("kernel: time event for %q already armed", topic))
		}
	}

	unit := unitMS
	var period uint16
	for u := unitMS; u <= unitMin; u++ {
		if ms <= timerThreshold[u] {
			unit = u
			if u == unitMS {
				period = uint16(ms)
			} else {
				period = uint16((ms + timerUnitMS[u]/2) / timerUnitMS[u])
			}
			break
		}
	}

	timeout := k.clock.Now() + ms
	k.timers[k.timerCount] = timeEvent{
		topic:   topic,
		oneShot: oneShot,
		unit:    unit,
		period:  period,
		timeout: timeout,
	}
	k.timerCount++

	if k.timeoutMin > timeout {
		k.timeoutMin = timeout
	}

	k.logger.Debug().
		Str("topic", topic).
		Uint32("delay_ms", ms).
		Bool("one_shot", oneShot).
		Msg("Time event armed")
}

// TimeCancel removes every armed time event for topic.
func (k *Kernel) TimeCancel(topic string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	timeoutMin := uint32(math.MaxUint32)
	for i := 0; i < k.timerCount; i++ {
		if k.timers[i].topic != topic {
			if timeoutMin > k.timers[i].timeout {
				timeoutMin = k.timers[i].timeout
			}
			continue
		}
		k.timers[i] = k.timers[k.timerCount-1]
		k.timerCount--
		i--
	}
	k.timeoutMin = timeoutMin
}

// PollTimers fires every due time event. The system timer driver calls it
// each tick; tests call it directly after advancing a manual clock.
func (k *Kernel) PollTimers() {
	k.mu.Lock()

	if k.timerCount == 0 {
		k.mu.Unlock()
		return
	}

	now := k.clock.Now()
	if now < k.timeoutMin {
		k.mu.Unlock()
		return
	}

	var due []string
	for i := 0; i < k.timerCount; i++ {
		if k.timers[i].timeout > now {
			continue
		}
		due = append(due, k.timers[i].topic)
		if k.timers[i].oneShot {
			k.timers[i] = k.timers[k.timerCount-1]
			k.timerCount--
			i--
		} else {
			k.timers[i].timeout += uint32(k.timers[i].period) * timerUnitMS[k.timers[i].unit]
		}
	}

	if k.timerCount == 0 {
		k.timeoutMin = math.MaxUint32
	} else {
		min := uint32(math.MaxUint32)
		for i := 0; i < k.timerCount; i++ {
			if min > k.timers[i].timeout {
				min = k.timers[i].timeout
			}
		}
		k.timeoutMin = min
	}

	k.mu.Unlock()

	// Publishing re-enters the critical section per topic.
	for _, topic := range due {
		k.Publish(topic)
	}
}
