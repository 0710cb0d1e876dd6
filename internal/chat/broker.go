package chat

import "sync"

// CancelFunc releases a thread subscription. Safe to call more than once.
type CancelFunc func()

// Broker fans out new and updated messages to live thread subscribers.
// A session controller owns exactly one subscription per open thread
// and must cancel it when the thread closes.
type Broker interface {
	Publish(key ThreadKey, msg Message)
	Subscribe(key ThreadKey) (<-chan Message, CancelFunc, error)
}

const subscriberBuffer = 16

// MemoryBroker is an in-process Broker. Delivery is best-effort: a
// subscriber that falls behind loses events rather than blocking the
// publisher; the client resyncs from the store on its next load.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[ThreadKey]map[int]chan Message
	next int
}

// NewMemoryBroker creates an empty MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[ThreadKey]map[int]chan Message)}
}

// Publish delivers msg to every live subscriber of the thread.
func (b *MemoryBroker) Publish(key ThreadKey, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[key] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a listener on the thread.
func (b *MemoryBroker) Subscribe(key ThreadKey) (<-chan Message, CancelFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Message, subscriberBuffer)
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]chan Message)
	}
	b.subs[key][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[key], id)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}
