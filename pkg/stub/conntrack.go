package stub

import (
	"context"
	"net"
	"net/http"
	"sync"
)

// connTracker records every live transport connection opened by the
// listener so shutdown can force-close and drain them. Connections are
// added on accept and removed when the transport reports them closed,
// whether naturally or forced.
type connTracker struct {
	mu    sync.Mutex
	conns map[net.Conn]struct{}
	empty chan struct{} // non-nil while a drain is waiting
}

func newConnTracker() *connTracker {
	return &connTracker{conns: make(map[net.Conn]struct{})}
}

// hook returns a http.Server.ConnState callback wiring accept/close events
// into the tracker.
func (t *connTracker) hook() func(net.Conn, http.ConnState) {
	return func(c net.Conn, state http.ConnState) {
		switch state {
		case http.StateNew:
			t.add(c)
		case http.StateClosed, http.StateHijacked:
			t.remove(c)
		}
	}
}

func (t *connTracker) add(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[c] = struct{}{}
}

func (t *connTracker) remove(c net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, c)
	if len(t.conns) == 0 && t.empty != nil {
		close(t.empty)
		t.empty = nil
	}
}

// count returns the number of live tracked connections.
func (t *connTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// drain force-closes every tracked connection and blocks until the tracked
// set is empty, i.e. until each forced closure has itself been reported
// closed. Completes immediately when the set is already empty.
func (t *connTracker) drain(ctx context.Context) error {
	t.mu.Lock()
	if len(t.conns) == 0 {
		t.mu.Unlock()
		return nil
	}
	waiting := make([]net.Conn, 0, len(t.conns))
	for c := range t.conns {
		waiting = append(waiting, c)
	}
	empty := make(chan struct{})
	t.empty = empty
	t.mu.Unlock()

	for _, c := range waiting {
		_ = c.Close()
	}

	select {
	case <-empty:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
