package realtime

import "sync"

// Broker is the connection registry: it maps each board id to the set of
// live subscriber channels interested in it. Connections register on
// stream-open and are removed on disconnect; there is no explicit
// unsubscribe handshake beyond that.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan string]struct{}
}

// NewBroker returns an empty registry.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan string]struct{})}
}

// Subscribe registers a new subscriber for the given board and returns its
// delivery channel.
func (b *Broker) Subscribe(boardID string) chan string {
	ch := make(chan string, 1)
	b.mu.Lock()
	if b.subs[boardID] == nil {
		b.subs[boardID] = make(map[chan string]struct{})
	}
	b.subs[boardID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber. Safe to call after Broadcast races.
func (b *Broker) Unsubscribe(boardID string, ch chan string) {
	b.mu.Lock()
	if subs, ok := b.subs[boardID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.subs, boardID)
		}
	}
	b.mu.Unlock()
}

// Broadcast delivers a "board changed" signal to every subscriber of the
// board. Delivery is at-most-once: a subscriber whose buffer is full (or that
// is mid-disconnect) is skipped, its recovery path being the next full fetch.
func (b *Broker) Broadcast(boardID string) {
	b.mu.Lock()
	subs := b.subs[boardID]
	for ch := range subs {
		select {
		case ch <- boardID:
		default:
		}
	}
	b.mu.Unlock()
}

// SubscriberCount reports how many connections are watching the board.
func (b *Broker) SubscriberCount(boardID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[boardID])
}
