package push

import (
	"sync"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

// Hub fans push events out to subscribers. It keeps only the latest event,
// and each subscriber channel holds at most one undelivered event: a newer
// event replaces a pending one instead of queueing behind it.
type Hub struct {
	mu     sync.Mutex
	latest *domain.PushEvent
	subs   map[uint64]chan domain.PushEvent
	nextID uint64
}

var _ ports.EventSubscriber = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan domain.PushEvent)}
}

func (h *Hub) Publish(event domain.PushEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &event
	for _, ch := range h.subs {
		select {
		case ch <- event:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

// Latest returns the most recent event, if any was published.
func (h *Hub) Latest() (domain.PushEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return domain.PushEvent{}, false
	}
	return *h.latest, true
}

func (h *Hub) Subscribe() (<-chan domain.PushEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.PushEvent, 1)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
