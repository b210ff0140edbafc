package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/domain"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind loses events rather than stalling the producer.
const subscriberBuffer = 64

// EventHub fans progress envelopes out to subscribers. Delivery is
// fire-and-forget: publishing never blocks, slow subscribers drop.
type EventHub struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan domain.Envelope
	closed      bool
	logger      *zap.Logger
}

// NewEventHub creates a new event hub
func NewEventHub(log *zap.Logger) *EventHub {
	return &EventHub{
		subscribers: make(map[int]chan domain.Envelope),
		logger:      log,
	}
}

// Subscribe registers a new consumer and returns its id and channel. The
// channel is closed on Unsubscribe or hub Close.
func (h *EventHub) Subscribe() (int, <-chan domain.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan domain.Envelope)
		close(ch)
		return -1, ch
	}

	id := h.nextID
	h.nextID++
	ch := make(chan domain.Envelope, subscriberBuffer)
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (h *EventHub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish delivers an envelope to every subscriber that has buffer room.
func (h *EventHub) Publish(env domain.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- env:
		default:
			h.logger.Debug("Dropping event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("kind", string(env.Kind)))
		}
	}
}

// CallbackFor returns an engine callback that publishes every event under
// the given source tag.
func (h *EventHub) CallbackFor(source string) domain.Callback {
	return func(ev domain.Event) {
		h.Publish(domain.NewEnvelope(source, ev))
	}
}

// Close shuts the hub down, closing all subscriber channels.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
