package mpv

import (
	"fmt"
	"slices"

	"github.com/mpvctl-cli/mpvctl/protocol"
)

// watchBudget is the number of inbound frames a watcher observes before
// giving up. The budget counts socket reads, not wall-clock time, which
// reproduces the peer-driven pacing of the protocol: a stalled player
// never ticks the watcher, a chatty one exhausts it quickly.
const watchBudget = 10

// watchSpec parameterizes a watcher by the event vocabulary of one
// composite operation.
type watchSpec struct {
	start   string
	success []string
	failure []string
	budget  int
}

// watcher is a single-use state machine that translates a sequence of
// inbound frames into one terminal outcome. It arms on the start event,
// succeeds on any success event, fails on any failure event while armed,
// and times out once the tick budget is exhausted.
//
// Watchers observe the session's shared frame stream; they never open a
// secondary connection, so concurrent operations see frames in the same
// order the peer emitted them.
type watcher struct {
	spec    watchSpec
	source  string
	started bool
	ticks   int
	done    chan error
}

func newWatcher(spec watchSpec, source string) *watcher {
	if spec.budget == 0 {
		spec.budget = watchBudget
	}
	return &watcher{
		spec:   spec,
		source: source,
		done:   make(chan error, 1),
	}
}

// observe consumes one inbound frame and reports whether the watcher
// reached a terminal state. Every frame counts one tick, responses
// included; only events drive transitions.
func (w *watcher) observe(f *protocol.Frame) (terminal bool) {
	w.ticks++

	if !f.IsResponse {
		name := f.Event.Name
		switch {
		case !w.started && name == w.spec.start:
			w.started = true

		case w.started && slices.Contains(w.spec.success, name):
			w.done <- nil
			return true

		case w.started && slices.Contains(w.spec.failure, name):
			w.done <- &LoadError{Source: w.source, Reason: f.Event.Reason()}
			return true
		}
	}

	if w.ticks >= w.spec.budget {
		w.done <- fmt.Errorf("%w: %s", ErrOperationTimeout, w.source)
		return true
	}
	return false
}

// abort terminates a non-terminal watcher with the given reason; used
// when the connection drops out from under it.
func (w *watcher) abort(err error) {
	w.done <- err
}
