// Package vpn provides VPN connection management functionality.
// This file contains the Broadcaster that fans events out to subscribers.
package vpn

import (
	"sync"

	"github.com/yllada/vpn-toggle/common"
)

// Broadcaster delivers every published event to all subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber. The returned function removes the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, common.EventBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish sends ev to every subscriber.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			common.LogWarn("Subscriber %d is not keeping up, dropped event %q", id, ev.String())
		}
	}
}

// Close closes all subscriber channels. Later publishes are ignored.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
