// Package live fans request changes out to open subscriptions.
package live

import (
	"context"
	"sync"
	"time"

	"booking-requests-api/internal/model"
)

// Event says that a record of Kind owned by OwnerID changed.
type Event struct {
	Kind    model.Kind   `json:"kind"`
	ID      string       `json:"id"`
	OwnerID string       `json:"owner_id"`
	Status  model.Status `json:"status"`
	At      time.Time    `json:"at"`
}

// Publisher announces changes. Hub publishes locally, RedisRelay to every instance.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription receives a signal whenever a matching event is broadcast.
// Signals coalesce: a subscriber that is busy re-fetching sees one pending
// signal no matter how many events arrived meanwhile.
type Subscription struct {
	hub   *Hub
	kind  model.Kind
	owner string
	c     chan struct{}
	once  sync.Once
}

// Subscribe follows kind for one owner, or for every owner when owner is "".
func (h *Hub) Subscribe(kind model.Kind, owner string) *Subscription {
	s := &Subscription{hub: h, kind: kind, owner: owner, c: make(chan struct{}, 1)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (s *Subscription) C() <-chan struct{} { return s.c }

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
	})
}

func (s *Subscription) matches(e Event) bool {
	return s.kind == e.Kind && (s.owner == "" || s.owner == e.OwnerID)
}

func (h *Hub) Publish(_ context.Context, e Event) error {
	h.Broadcast(e)
	return nil
}

// Broadcast signals every matching subscription without blocking.
func (h *Hub) Broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.matches(e) {
			continue
		}
		select {
		case s.c <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
