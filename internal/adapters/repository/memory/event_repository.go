package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type eventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) ports.EventRepository {
	return &eventRepository{store: store}
}

func (r *eventRepository) Create(_ context.Context, events ...*domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range events {
		r.store.events[e.ID] = copyEvent(e)
	}
	return nil
}

func (r *eventRepository) ListByPoll(_ context.Context, pollID uuid.UUID) ([]*domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	events := []*domain.Event{}
	for _, e := range r.store.events {
		if e.PollID == pollID {
			events = append(events, copyEvent(e))
		}
	}
	sortEvents(events)
	return events, nil
}

func (r *eventRepository) ListByIDs(_ context.Context, pollID uuid.UUID, ids []uuid.UUID) ([]*domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	events := []*domain.Event{}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e, ok := r.store.events[id]; ok && e.PollID == pollID {
			events = append(events, copyEvent(e))
		}
	}
	sortEvents(events)
	return events, nil
}

func (r *eventRepository) Update(_ context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.events[event.ID]
	if !ok || existing.PollID != event.PollID {
		return domain.ErrEventNotFound
	}
	r.store.events[event.ID] = copyEvent(event)
	return nil
}

func (r *eventRepository) DeleteByIDs(_ context.Context, pollID uuid.UUID, ids []uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if e, ok := r.store.events[id]; ok && e.PollID == pollID {
			delete(r.store.events, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *eventRepository) DeleteByPoll(_ context.Context, pollID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for id, e := range r.store.events {
		if e.PollID == pollID {
			delete(r.store.events, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *eventRepository) CountByPoll(_ context.Context, pollID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, e := range r.store.events {
		if e.PollID == pollID {
			count++
		}
	}
	return count, nil
}

func (r *eventRepository) ListPollIDs(_ context.Context) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	ids := []uuid.UUID{}
	for _, e := range r.store.events {
		if _, ok := seen[e.PollID]; ok {
			continue
		}
		seen[e.PollID] = struct{}{}
		ids = append(ids, e.PollID)
	}
	return sortIDs(ids), nil
}
