package actor

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/emberos/ember/pkg/kernel"
	"github.com/emberos/ember/pkg/log"
	"github.com/emberos/ember/pkg/types"
)

// StateHandler is one state of a hierarchical machine. It reacts to an
// event and reports how it was consumed: RetHandled ends dispatch,
// RetSuper defers to the parent stored via Super, RetTran requests the
// transition stored via Tran. Handlers must be declared functions so state
// identity is stable.
type StateHandler func(sm *SM, e *types.Event) types.Ret

// Protocol events driven into handlers by the engine.
var (
	evNull  = types.Event{Topic: types.TopicNull}
	evEnter = types.Event{Topic: types.TopicEnter}
	evExit  = types.Event{Topic: types.TopicExit}
	evInit  = types.Event{Topic: types.TopicInit}
)

// SM is a hierarchical state machine serviced by its own task goroutine.
type SM struct {
	task     *kernel.Task
	k        *kernel.Kernel
	state    StateHandler
	maxDepth int
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewSM registers a state machine task with the kernel.
func NewSM(k *kernel.Kernel, name string, priority uint8, maxDepth int) (*SM, error) {
	if maxDepth < 2 || maxDepth > 4 {
		return nil, fmt.Errorf("state nest depth must be in 2..4, got %d", maxDepth)
	}
	task, err := k.RegisterTask(name, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to register state machine %q: %w", name, err)
	}
	return &SM{
		task:     task,
		k:        k,
		state:    StateTop,
		maxDepth: maxDepth,
		logger:   log.ForTask(log.Subsystem("hsm"), name),
		stopCh:   make(chan struct{}),
	}, nil
}

// Task returns the machine's kernel task, for subscriptions and sends.
func (sm *SM) Task() *kernel.Task {
	return sm.task
}

// Start drives the machine into its initial state configuration and
// begins the event loop. The initial handler must transition.
func (sm *SM) Start(initial StateHandler) {
	sm.state = initial
	sm.k.SendByID(sm.task.ID(), types.TopicNull)
	go sm.run()
}

// Stop ends the event loop.
func (sm *SM) Stop() {
	close(sm.stopCh)
	sm.k.SendByID(sm.task.ID(), types.TopicNull)
}

func (sm *SM) run() {
	sm.Enter()
	for {
		select {
		case <-sm.stopCh:
			return
		default:
		}
		var e types.Event
		if sm.task.WaitEvent(&e, waitSliceMS) {
			sm.Dispatch(&e)
		}
	}
}

// Tran records target as the transition destination and returns RetTran.
// For use inside state handlers only.
func (sm *SM) Tran(target StateHandler) types.Ret {
	sm.state = target
	return types.RetTran
}

// Super records parent as the handler's superstate and returns RetSuper.
// Handlers answer the null probe with this.
func (sm *SM) Super(parent StateHandler) types.Ret {
	sm.state = parent
	return types.RetSuper
}

// StateTop is the root of every state hierarchy. It handles nothing.
func StateTop(sm *SM, e *types.Event) types.Ret {
	return types.RetNull
}

// same compares state identities. Handlers are declared functions, so the
// code pointer identifies the state.
func same(a, b StateHandler) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func (sm *SM) trig(s StateHandler, e *types.Event) types.Ret {
	return s(sm, e)
}

// Enter drives the machine from the initial pseudo-state into its first
// stable configuration: the initial handler transitions, then each level
// is entered top-down and its init event may transition deeper.
func (sm *SM) Enter() {
	path := sm.newPath()

	if ret := sm.trig(sm.state, &evNull); ret != types.RetTran {
		panic(fmt.Sprintf("hsm %s: initial handler returned %s, must transition", sm.task.Name(), ret))
	}

	t := StateHandler(StateTop)
	for {
		// Collect the ancestor chain from the target up to t.
		ip := 0
		path[0] = sm.state
		sm.trig(sm.state, &evNull)
		for !same(sm.state, t) {
			ip++
			if ip >= sm.maxDepth {
				panic(fmt.Sprintf("hsm %s: state nesting exceeds depth %d", sm.task.Name(), sm.maxDepth))
			}
			path[ip] = sm.state
			sm.trig(sm.state, &evNull)
		}
		sm.state = path[0]

		for ; ip >= 0; ip-- {
			sm.trig(path[ip], &evEnter)
		}
		t = path[0]

		if sm.trig(t, &evInit) != types.RetTran {
			break
		}
	}
	sm.state = t
}

// Dispatch delivers an event to the current state, walking up the
// super-chain until some handler consumes it, and performs the requested
// transition with exact entry/exit ordering along the LCA path.
func (sm *SM) Dispatch(e *types.Event) {
	path := sm.newPath()

	t := sm.state
	var s StateHandler
	var r types.Ret

	for {
		s = sm.state
		r = sm.trig(s, e)
		if r != types.RetSuper {
			break
		}
	}

	if r != types.RetTran {
		sm.state = t
		return
	}

	path[0] = sm.state // transition target
	path[1] = t        // current (deepest) state
	path[2] = s        // state that requested the transition

	// Exit from the current state up to the transition source.
	for !same(t, s) {
		if sm.trig(t, &evExit) == types.RetHandled {
			sm.trig(t, &evNull)
		}
		t = sm.state
	}

	ip := sm.tran(path)
	for ; ip >= 0; ip-- {
		sm.trig(path[ip], &evEnter)
	}
	t = path[0]
	sm.state = t

	// Drill into the target's initial substates.
	for sm.trig(t, &evInit) == types.RetTran {
		ip = 0
		path[0] = sm.state
		sm.trig(sm.state, &evNull)
		for !same(sm.state, t) {
			ip++
			if ip >= sm.maxDepth {
				panic(fmt.Sprintf("hsm %s: state nesting exceeds depth %d", sm.task.Name(), sm.maxDepth))
			}
			path[ip] = sm.state
			sm.trig(sm.state, &evNull)
		}
		sm.state = path[0]

		for ; ip >= 0; ip-- {
			sm.trig(path[ip], &evEnter)
		}
		t = path[0]
	}
	sm.state = t
}

// tran finds the lowest common ancestor of source (path[2]) and target
// (path[0]), exits the source side and returns the index of the outermost
// entry-path state still to enter (-1 when nothing is entered); entries
// then run from that index down to the target. The case analysis follows the
// transition taxonomy: self, parent, sibling and the general cross
// search.
func (sm *SM) tran(path []StateHandler) int {
	ip := -1
	var iq int
	t := path[0]
	s := path[2]
	var r types.Ret

	// (a) transition to self.
	if same(s, t) {
		sm.trig(s, &evExit)
		return 0
	}

	sm.trig(t, &evNull)
	t = sm.state // superstate of target

	// (b) source is the target's parent.
	if same(s, t) {
		return 0
	}

	sm.trig(s, &evNull) // state now holds source's superstate

	// (c) source and target are siblings.
	if same(sm.state, t) {
		sm.trig(s, &evExit)
		return 0
	}

	// (d) target is the source's parent.
	if same(sm.state, path[0]) {
		sm.trig(s, &evExit)
		return -1
	}

	// (e) walk the target's ancestors looking for the source, recording
	// the entry path.
	iq = 0
	ip = 1
	path[1] = t
	t = sm.state // source's superstate

	r = sm.trig(path[1], &evNull)
	for r == types.RetSuper {
		ip++
		if ip >= sm.maxDepth {
			panic(fmt.Sprintf("hsm %s: state nesting exceeds depth %d", sm.task.Name(), sm.maxDepth))
		}
		path[ip] = sm.state
		if same(sm.state, s) {
			iq = 1
			ip-- // do not re-enter the source
			r = types.RetHandled
		} else {
			r = sm.trig(sm.state, &evNull)
		}
	}

	if iq == 0 {
		sm.trig(s, &evExit)

		// (f) is the source's superstate among the target's ancestors?
		iq = ip
		r = types.RetNull
		for iq >= 0 {
			if same(t, path[iq]) {
				r = types.RetHandled
				ip = iq - 1
				iq = -1
			} else {
				iq--
			}
		}

		if r != types.RetHandled {
			// (g) exit source-side ancestors one by one until one of
			// them is an ancestor of the target.
			r = types.RetNull
			for r != types.RetHandled {
				if sm.trig(t, &evExit) == types.RetHandled {
					sm.trig(t, &evNull)
				}
				t = sm.state
				iq = ip
				for iq >= 0 {
					if same(t, path[iq]) {
						ip = iq - 1
						iq = -1
						r = types.RetHandled
					} else {
						iq--
					}
				}
			}
		}
	}

	return ip
}

// newPath allocates the transition scratch array: one slot per nesting
// level plus the target/current/source bookkeeping slot.
func (sm *SM) newPath() []StateHandler {
	return make([]StateHandler, sm.maxDepth+1)
}
