package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type participantRepository struct {
	store *Store
}

func NewParticipantRepository(store *Store) ports.ParticipantRepository {
	return &participantRepository{store: store}
}

func (r *participantRepository) Create(_ context.Context, participant *domain.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.participants[participant.ID] = copyParticipant(participant)
	return nil
}

func (r *participantRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	return copyParticipant(p), nil
}

func (r *participantRepository) ListByPoll(_ context.Context, pollID uuid.UUID) ([]*domain.Participant, error) {
	return r.list(func(p *domain.Participant) bool { return p.PollID == pollID }), nil
}

func (r *participantRepository) ListByToken(_ context.Context, token string) ([]*domain.Participant, error) {
	return r.list(func(p *domain.Participant) bool { return p.Token == token }), nil
}

func (r *participantRepository) list(match func(*domain.Participant) bool) []*domain.Participant {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	participants := []*domain.Participant{}
	for _, p := range r.store.participants {
		if match(p) {
			participants = append(participants, copyParticipant(p))
		}
	}
	sortParticipants(participants)
	return participants
}

func (r *participantRepository) Update(_ context.Context, participant *domain.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.participants[participant.ID]; !ok {
		return domain.ErrParticipantNotFound
	}
	r.store.participants[participant.ID] = copyParticipant(participant)
	return nil
}

func (r *participantRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.participants[id]; !ok {
		return domain.ErrParticipantNotFound
	}
	delete(r.store.participants, id)
	return nil
}

func (r *participantRepository) DeleteByPoll(_ context.Context, pollID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var deleted int64
	for id, p := range r.store.participants {
		if p.PollID == pollID {
			delete(r.store.participants, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *participantRepository) CountByPoll(_ context.Context, pollID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, p := range r.store.participants {
		if p.PollID == pollID {
			count++
		}
	}
	return count, nil
}

func (r *participantRepository) RemoveVotes(_ context.Context, pollID uuid.UUID, eventIDs []uuid.UUID) (int64, error) {
	drop := make(map[uuid.UUID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		drop[id] = struct{}{}
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var changed int64
	for _, p := range r.store.participants {
		if p.PollID == pollID && p.RemoveVotes(drop) {
			changed++
		}
	}
	return changed, nil
}

func (r *participantRepository) UpdateMailByToken(_ context.Context, token string, mail string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var updated int64
	for _, p := range r.store.participants {
		if p.Token == token {
			p.Mail = mail
			updated++
		}
	}
	return updated, nil
}

func (r *participantRepository) ListPollIDs(_ context.Context) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	ids := []uuid.UUID{}
	for _, p := range r.store.participants {
		if _, ok := seen[p.PollID]; ok {
			continue
		}
		seen[p.PollID] = struct{}{}
		ids = append(ids, p.PollID)
	}
	return sortIDs(ids), nil
}
