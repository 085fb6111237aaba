package state

import (
	"sync"
	"sync/atomic"
)

type EventPublisher interface {
	Publish(any)
}

type EventSubscriber interface {
	Subscribe(chan any)
	Unsubscribe(chan any)
}

var _ EventPublisher = (*EventBus)(nil)
var _ EventSubscriber = (*EventBus)(nil)

type nullEventPublisher struct{}

func (_ nullEventPublisher) Publish(any) {}

var NullEventPublisher = nullEventPublisher{}

// EventBus fans events out to subscribers. Publish never blocks, a subscriber whose channel is full
// misses the event and the miss is counted.
type EventBus struct {
	lock        sync.RWMutex
	subscribers []chan any
	dropped     atomic.Uint64
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) Subscribe(ch chan any) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.subscribers = append(b.subscribers, ch)
}

func (b *EventBus) Unsubscribe(ch chan any) {
	b.lock.Lock()
	defer b.lock.Unlock()

	for i, c := range b.subscribers {
		if c == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

func (b *EventBus) Publish(e any) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the number of deliveries skipped because a subscriber was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}
