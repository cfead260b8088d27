package index

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind identifies a notification channel.
type EventKind string

const (
	EventStatus   EventKind = "index:status"
	EventProgress EventKind = "index:progress"
)

// Event is delivered to subscribers whenever the status changes or a batch or
// filesystem event has been applied.
type Event struct {
	Kind     EventKind `json:"kind"`
	Progress Progress  `json:"progress"`
}

// Subscription receives index events until it is cancelled.
type Subscription struct {
	ID string
	C  <-chan Event

	ch chan Event
}

// broadcaster fans events out to subscribers. Sends never block: a subscriber
// whose buffer is full misses that event.
type broadcaster struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[string]chan Event)}
}

func (b *broadcaster) subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{ID: uuid.New().String(), C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub.ID] = ch
	b.mu.Unlock()
	return sub
}

func (b *broadcaster) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
