package kernel

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberos/ember/pkg/config"
	"github.com/emberos/ember/pkg/heap"
	"github.com/emberos/ember/pkg/log"
	"github.com/emberos/ember/pkg/mask"
	"github.com/emberos/ember/pkg/port"
	"github.com/emberos/ember/pkg/ring"
	"github.com/emberos/ember/pkg/types"
)

type objKind uint8

const (
	objNone objKind = iota
	objTask
	objEvent
)

// eventSlot is the event side of a registry record: delivery head, the
// subscriber set and the payload descriptor.
type eventSlot struct {
	attr     uint8
	size     uint16
	head     *record // undelivered record for value/stream topics
	sub      mask.Mask
	valueOff uint32
	hasValue bool
	stream   *ring.Ring
}

// object is one registry slot, a tagged variant keyed by topic.
type object struct {
	key  string
	kind objKind
	evt  *eventSlot
	task *Task
}

// Kernel is the event-dispatch core: topic registry, event queue, time
// events, data store and the tasks wired to them. One mutex is the global
// critical section; every public entry takes it once.
type Kernel struct {
	mu     sync.Mutex
	cfg    config.Config
	clock  port.Clock
	logger zerolog.Logger

	objects []object
	prime   int
	occupy  mask.Mask // which slots hold tasks
	tasks   int

	queue  *record
	gOwner mask.Mask

	eheap *heap.Heap
	dheap *heap.Heap

	timers     []timeEvent
	timerCount int
	timeoutMin uint32

	stopCh  chan struct{}
	started bool

	sent      uint64
	published uint64
	coalesced uint64
	dropped   uint64
	timeouts  uint64
}

// New creates a kernel with the given sizing and a monotonic clock.
func New(cfg config.Config) (*Kernel, error) {
	return NewWithClock(cfg, nil)
}

// NewWithClock creates a kernel driven by an explicit clock. A nil clock
// selects the monotonic default.
func NewWithClock(cfg config.Config, clk port.Clock) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernel config: %w", err)
	}
	if clk == nil {
		clk = port.NewMonotonicClock()
	}

	k := &Kernel{
		cfg:        cfg,
		clock:      clk,
		logger:     log.Subsystem("kernel"),
		objects:    make([]object, cfg.MaxObjects),
		prime:      largestPrime(cfg.MaxObjects),
		eheap:      heap.New(cfg.EventHeapSize),
		dheap:      heap.New(cfg.StoreHeapSize),
		timers:     make([]timeEvent, cfg.MaxTimeEvents),
		timeoutMin: math.MaxUint32,
		stopCh:     make(chan struct{}),
	}

	k.logger.Info().
		Int("max_objects", cfg.MaxObjects).
		Int("prime", k.prime).
		Uint32("event_heap", cfg.EventHeapSize).
		Uint32("store_heap", cfg.StoreHeapSize).
		Msg("Kernel initialized")

	return k, nil
}

// Start launches the system timer driver polling the time-event table.
func (k *Kernel) Start() {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return
	}
	k.started = true
	k.mu.Unlock()

	go k.timerDriver()
	k.logger.Info().Dur("tick", k.cfg.Tick()).Msg("Kernel started")
}

// Stop halts the system timer driver.
func (k *Kernel) Stop() {
	k.mu.Lock()
	if !k.started {
		k.mu.Unlock()
		return
	}
	k.started = false
	k.mu.Unlock()

	close(k.stopCh)
	k.logger.Info().Msg("Kernel stopped")
}

func (k *Kernel) timerDriver() {
	ticker := time.NewTicker(k.cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.PollTimers()
		case <-k.stopCh:
			return
		}
	}
}

// Existed reports whether topic has a registry slot.
func (k *Kernel) Existed(topic string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.existed(topic)
}

// SetAttributeGlobal marks topic's event slot with the global flag,
// inserting the topic if absent.
func (k *Kernel) SetAttributeGlobal(topic string) {
	k.setFlag(topic, types.AttrGlobal)
}

// SetAttributeUnblocked marks topic's event slot with the unblocked flag,
// inserting the topic if absent.
func (k *Kernel) SetAttributeUnblocked(topic string) {
	k.setFlag(topic, types.AttrUnblocked)
}

func (k *Kernel) setFlag(topic string, flag uint8) {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.eventSlotAt(topic)
	k.objects[idx].evt.attr |= flag
}

// Stats is a point-in-time snapshot of kernel state for observability.
type Stats struct {
	Objects     int
	Tasks       int
	QueueDepth  int
	TimersArmed int

	EventHeapUsed uint32
	EventHeapSize uint32
	StoreHeapUsed uint32
	StoreHeapSize uint32

	Sent         uint64
	Published    uint64
	Coalesced    uint64
	Dropped      uint64
	WaitTimeouts uint64
}

// Snapshot returns current kernel statistics.
func (k *Kernel) Snapshot() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()

	objects := 0
	for i := range k.objects {
		if k.objects[i].key != "" {
			objects++
		}
	}

	return Stats{
		Objects:       objects,
		Tasks:         k.tasks,
		QueueDepth:    k.queueDepth(),
		TimersArmed:   k.timerCount,
		EventHeapUsed: k.eheap.Used(),
		EventHeapSize: k.eheap.Size(),
		StoreHeapUsed: k.dheap.Used(),
		StoreHeapSize: k.dheap.Size(),
		Sent:          k.sent,
		Published:     k.published,
		Coalesced:     k.coalesced,
		Dropped:       k.dropped,
		WaitTimeouts:  k.timeouts,
	}
}
