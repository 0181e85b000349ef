package events

import "sync"

// Event names a topic on the bus.
type Event string

const (
	// EventSignalReceived carries a bridge.Signal as soon as it validates.
	EventSignalReceived Event = "signal.received"
	// EventOrderReported carries an OrderReport after a submission attempt.
	EventOrderReported Event = "order.reported"
)

// OrderReport is the bus payload for a finished submission attempt.
type OrderReport struct {
	Pair    string `json:"pair"`
	Side    string `json:"side"`
	Amount  string `json:"amount"`
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Bus is a lightweight in-process pub/sub broker. Publishing never blocks;
// slow subscribers lose messages rather than stalling the request path.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Event]map[int]chan any
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Event]map[int]chan any)}
}

// Subscribe registers a buffered listener and returns the channel plus an
// unsubscribe function that also closes it.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[e] == nil {
		b.subs[e] = make(map[int]chan any)
	}
	id := b.next
	b.next++
	ch := make(chan any, buffer)
	b.subs[e][id] = ch

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[e][id]; ok {
			delete(b.subs[e], id)
			close(c)
		}
	}
	return ch, unsub
}

// Publish fans the payload out to all current subscribers.
func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e] {
		select {
		case ch <- payload:
		default:
			// drop rather than block the publisher
		}
	}
}
