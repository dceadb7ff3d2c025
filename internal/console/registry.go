package console

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/core/events"
)

// Registry owns the live sessions of this process.
type Registry struct {
	deps Deps
	bus  *events.EventBus

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry subscribes to notification events on bus and routes each one
// to the session that raised it.
func NewRegistry(deps Deps, bus *events.EventBus) *Registry {
	r := &Registry{
		deps:     deps,
		bus:      bus,
		sessions: make(map[string]*Session),
	}
	bus.Subscribe(events.EventTypeNotification, r.route)
	return r
}

func (r *Registry) route(_ context.Context, e events.Event) error {
	n, ok := e.(*events.NotificationEvent)
	if !ok || n.SessionID == "" {
		return nil
	}
	r.mu.RLock()
	s, ok := r.sessions[n.SessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	s.notifications.add(Notification{
		ID:       n.ID,
		Title:    n.Title,
		Message:  n.Message,
		Severity: n.Severity,
	})
	return nil
}

func (r *Registry) Create(category string) (*Session, error) {
	cat, ok := r.deps.Catalog.Category(category)
	if !ok {
		return nil, internal.ErrUnknownCategory
	}

	id := uuid.New().String()
	s := newSession(id, cat, r.deps, busNotifier{bus: r.bus, sessionID: id, logger: r.deps.Logger})

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.deps.Logger.Info("report session created", "session_id", id, "category", category)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, internal.ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
