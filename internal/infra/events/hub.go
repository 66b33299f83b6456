package events

import (
	"log/slog"
	"sync"

	"github.com/yanqian/echo-chat/internal/domain/conversation"
)

// Hub fans render events out to every connected panel.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan conversation.Event
	nextID      uint64
	buffer      int
	closed      bool
	logger      *slog.Logger
}

// NewHub constructs an in-process event hub. buffer bounds each subscriber's backlog.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subscribers: make(map[uint64]chan conversation.Event),
		buffer:      buffer,
		logger:      logger.With("component", "events.hub"),
	}
}

// Emit delivers event to every subscriber without blocking. A subscriber whose backlog is
// full misses the event.
func (h *Hub) Emit(event conversation.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn("subscriber backlog full, dropping event", "subscriber", id, "type", event.Type)
		}
	}
}

// Subscribe registers a new listener. The returned cancel func closes the channel.
func (h *Hub) Subscribe() (<-chan conversation.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan conversation.Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subscribers[id] = ch
	h.logger.Debug("subscriber added", "subscriber", id, "total", len(h.subscribers))

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

// SubscriberCount reports how many listeners are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.subscribers[id]
	if !ok {
		return
	}
	close(ch)
	delete(h.subscribers, id)
	h.logger.Debug("subscriber removed", "subscriber", id, "total", len(h.subscribers))
}

var _ conversation.Renderer = (*Hub)(nil)
