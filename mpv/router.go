package mpv

import (
	"sync"

	"github.com/mpvctl-cli/mpvctl/protocol"
)

// EventFunc consumes one event from the player's notification stream.
type EventFunc func(protocol.Event)

type subscriber struct {
	id int64
	fn EventFunc
}

// router publishes unsolicited peer events (and locally synthesized
// ones) to subscribers in registration order, synchronously per event,
// preserving the peer's emission order.
type router struct {
	mu   sync.Mutex
	next int64
	subs []subscriber
}

// subscribe appends a subscriber and returns its id.
func (r *router) subscribe(fn EventFunc) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.subs = append(r.subs, subscriber{id: r.next, fn: fn})
	return r.next
}

// unsubscribe removes a subscriber by id.
func (r *router) unsubscribe(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// dispatch delivers one event to all current subscribers. Handlers run
// on the caller's goroutine; the snapshot keeps a handler free to
// subscribe or unsubscribe without deadlocking.
func (r *router) dispatch(ev protocol.Event) {
	r.mu.Lock()
	snapshot := make([]subscriber, len(r.subs))
	copy(snapshot, r.subs)
	r.mu.Unlock()

	for _, s := range snapshot {
		s.fn(ev)
	}
}
