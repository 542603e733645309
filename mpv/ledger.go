package mpv

import (
	"sync"

	"github.com/mpvctl-cli/mpvctl/protocol"
)

// result is the terminal outcome of one pending request.
type result struct {
	data any
	err  error
}

// ledger assigns monotonically increasing request identifiers and holds
// the per-request completion channel until the matching response frame
// is consumed. Ids are never reused while outstanding; each entry is
// resolved at most once and removed on resolution.
type ledger struct {
	mu      sync.Mutex
	next    int64
	pending map[int64]chan result
}

// register allocates the next request id and its completion channel.
// The channel is buffered so resolution never blocks the read loop.
func (l *ledger) register() (int64, chan result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending == nil {
		l.pending = make(map[int64]chan result)
	}

	id := l.next
	l.next++

	ch := make(chan result, 1)
	l.pending[id] = ch
	return id, ch
}

// drop removes an entry whose request never reached the wire.
func (l *ledger) drop(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
}

// resolve completes the entry matching a response frame. Success resolves
// with the payload; any other outcome rejects with the peer's error string.
// Responses with no matching entry are ignored.
func (l *ledger) resolve(f *protocol.Frame) {
	l.mu.Lock()
	ch, ok := l.pending[f.RequestID]
	delete(l.pending, f.RequestID)
	l.mu.Unlock()

	if !ok {
		return
	}

	if f.Succeeded() {
		ch <- result{data: f.Data}
		return
	}
	ch <- result{err: &CommandError{Reason: f.Error}}
}

// abandon rejects every outstanding entry; used when the connection dies.
func (l *ledger) abandon(err error) {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: err}
	}
}
