package actor

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/emberos/ember/pkg/kernel"
	"github.com/emberos/ember/pkg/log"
	"github.com/emberos/ember/pkg/types"
)

// waitSliceMS is how long an actor loop parks between stop checks.
const waitSliceMS = 10_000

// EventHandler reacts to one delivered event.
type EventHandler func(r *Reactor, e *types.Event)

// Reactor is the flat engine: a task whose loop feeds every received
// event to a single handler function.
type Reactor struct {
	task    *kernel.Task
	k       *kernel.Kernel
	handler EventHandler
	logger  zerolog.Logger
	stopCh  chan struct{}
}

// NewReactor registers a reactor task with the kernel.
func NewReactor(k *kernel.Kernel, name string, priority uint8) (*Reactor, error) {
	task, err := k.RegisterTask(name, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to register reactor %q: %w", name, err)
	}
	return &Reactor{
		task:   task,
		k:      k,
		logger: log.ForTask(log.Subsystem("reactor"), name),
		stopCh: make(chan struct{}),
	}, nil
}

// Task returns the reactor's kernel task, for subscriptions and sends.
func (r *Reactor) Task() *kernel.Task {
	return r.task
}

// Start begins the event loop. The handler first receives a synthetic
// enter event, then every event delivered to the task.
func (r *Reactor) Start(handler EventHandler) {
	r.handler = handler
	r.k.SendByID(r.task.ID(), types.TopicNull)
	go r.run()
}

// Stop ends the event loop.
func (r *Reactor) Stop() {
	close(r.stopCh)
	r.k.SendByID(r.task.ID(), types.TopicNull)
}

func (r *Reactor) run() {
	enter := types.Event{Topic: types.TopicEnter}
	r.handler(r, &enter)

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}
		var e types.Event
		if r.task.WaitEvent(&e, waitSliceMS) {
			r.handler(r, &e)
		}
	}
}
