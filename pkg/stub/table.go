package stub

import "sync"

// handlerTable is the ordered collection of registered handlers. Order is
// significant: it is the tie-break for overlapping handlers, first match
// wins. The mutex only guards the slice itself; handlers are immutable
// once registered.
type handlerTable struct {
	mu       sync.RWMutex
	handlers []*Handler
}

func newHandlerTable() *handlerTable {
	return &handlerTable{}
}

// add appends a handler after applying defaults.
func (t *handlerTable) add(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h.withDefaults())
}

// match returns the first registered handler matching r, or nil. Scanning
// stops at the first match: this is a fall-through routing table, not
// best-match routing.
func (t *handlerTable) match(r *Request) *Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, h := range t.handlers {
		if h.matches(r) {
			return h
		}
	}
	return nil
}

// reset empties the table.
func (t *handlerTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = nil
}

// size returns the number of registered handlers.
func (t *handlerTable) size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
