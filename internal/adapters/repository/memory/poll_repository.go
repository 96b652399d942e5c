package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type pollRepository struct {
	store *Store
}

func NewPollRepository(store *Store) ports.PollRepository {
	return &pollRepository{store: store}
}

func (r *pollRepository) Create(_ context.Context, poll *domain.Poll) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.polls[poll.ID] = copyPoll(poll)
	return nil
}

func (r *pollRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	poll, ok := r.store.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return copyPoll(poll), nil
}

func (r *pollRepository) Update(_ context.Context, poll *domain.Poll) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.polls[poll.ID]; !ok {
		return domain.ErrPollNotFound
	}
	r.store.polls[poll.ID] = copyPoll(poll)
	return nil
}

func (r *pollRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.polls[id]; !ok {
		return domain.ErrPollNotFound
	}
	delete(r.store.polls, id)
	return nil
}

func (r *pollRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.polls[id]
	return ok, nil
}

func (r *pollRepository) ListByAdminToken(_ context.Context, token string) ([]*domain.Poll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	polls := []*domain.Poll{}
	for _, p := range r.store.polls {
		if p.AdminToken == token {
			polls = append(polls, copyPoll(p))
		}
	}
	sortPolls(polls)
	return polls, nil
}

func (r *pollRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Poll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	polls := []*domain.Poll{}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.store.polls[id]; ok {
			polls = append(polls, copyPoll(p))
		}
	}
	sortPolls(polls)
	return polls, nil
}
