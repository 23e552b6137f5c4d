package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
)

// subscriberBuffer is the per-subscriber queue depth. A subscriber that
// falls this far behind starts losing events.
const subscriberBuffer = 16

// Broadcaster fans mutation events out to in-process subscribers, one topic
// per connection. Delivery is fire-and-forget and at-most-once: Publish
// never blocks a handler, and events sent to a full subscriber queue are
// dropped.
type Broadcaster struct {
	mu     sync.RWMutex
	topics map[string]map[int]chan domain.MutationEvent
	nextID int
	logger *zap.Logger
}

// Ensure Broadcaster implements port.Publisher
var _ port.Publisher = (*Broadcaster)(nil)

// New creates a new Broadcaster
func New(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		topics: make(map[string]map[int]chan domain.MutationEvent),
		logger: logger,
	}
}

// Publish delivers event to every current subscriber of its topic.
func (b *Broadcaster) Publish(event domain.MutationEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.topics[event.Topic()] {
		select {
		case ch <- event:
		default:
			b.logger.Debug("dropping event for slow subscriber",
				zap.String("topic", event.Topic()),
				zap.Int("subscriber", id))
		}
	}
}

// Subscribe registers a listener for one connection's mutation log and
// returns the event channel plus a cancel function. Cancel closes the
// channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe(connectionID string) (<-chan domain.MutationEvent, func()) {
	topic := domain.EventTopic(connectionID)
	ch := make(chan domain.MutationEvent, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]chan domain.MutationEvent)
	}
	b.topics[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.topics[topic], id)
			if len(b.topics[topic]) == 0 {
				delete(b.topics, topic)
			}
			// No publisher can be mid-send once the write lock is held, so
			// closing here cannot race Publish.
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}
