package store

import "sync"

// Op identifies the kind of change published on the notifier
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpReset  Op = "reset"
)

// Change describes one committed mutation. Table is "*" for
// wholesale operations (reset, restore).
type Change struct {
	Table string
	Op    Op
	ID    int64
}

// Notifier fans committed changes out to in-process subscribers so
// dependent views can refresh without a full reload.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	closed bool
}

func newNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Change)}
}

// Subscribe registers a listener. The returned cancel function must be
// called when the listener is done; it is safe to call more than once.
func (n *Notifier) Subscribe() (<-chan Change, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan Change, 16)
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers a change to every subscriber without blocking;
// a slow subscriber drops events rather than stalling the writer.
func (n *Notifier) publish(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (n *Notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
