package client

import "sync"

// notifier fans a change signal out to any number of subscribers over
// buffered channels. Sends never block: a subscriber that has not
// drained its pending tick simply coalesces with the next one.
type notifier struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

func (n *notifier) subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		ch := make(chan struct{})
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	ch := make(chan struct{}, 1)
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

func (n *notifier) publish() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true

	for id, ch := range n.subs {
		close(ch)
		delete(n.subs, id)
	}
}
