package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
)

type EventRepository interface {
	Create(ctx context.Context, events ...*domain.Event) error
	// ListByPoll returns the poll's events ordered by start.
	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Event, error)
	// ListByIDs returns the events of the poll whose id is in ids.
	ListByIDs(ctx context.Context, pollID uuid.UUID, ids []uuid.UUID) ([]*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	DeleteByIDs(ctx context.Context, pollID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
	CountByPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
	// ListPollIDs returns every distinct poll id referenced by an event.
	ListPollIDs(ctx context.Context) ([]uuid.UUID, error)
}
