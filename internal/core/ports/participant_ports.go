package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *domain.Participant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error)
	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Participant, error)
	ListByToken(ctx context.Context, token string) ([]*domain.Participant, error)
	Update(ctx context.Context, participant *domain.Participant) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
	CountByPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
	// RemoveVotes drops the given events from both vote sets of every
	// participant of the poll and returns the number of participants changed.
	RemoveVotes(ctx context.Context, pollID uuid.UUID, eventIDs []uuid.UUID) (int64, error)
	// UpdateMailByToken sets mail on every participant holding token, across polls.
	UpdateMailByToken(ctx context.Context, token string, mail string) (int64, error)
	ListPollIDs(ctx context.Context) ([]uuid.UUID, error)
}
