package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
)

type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// Update replaces the stored poll; it fails with domain.ErrPollNotFound
	// instead of inserting.
	Update(ctx context.Context, poll *domain.Poll) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListByAdminToken(ctx context.Context, token string) ([]*domain.Poll, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Poll, error)
}

type PollInput struct {
	Title       string
	Description string
	Location    string
	Settings    json.RawMessage
	AdminToken  string
	AdminMail   string
}

type EventInput struct {
	// ID is uuid.Nil for events that do not exist yet.
	ID    uuid.UUID
	Start time.Time
	End   time.Time
	Note  string
}

type ParticipantInput struct {
	Name                       string
	Mail                       string
	Token                      string
	Participation              []uuid.UUID
	IndeterminateParticipation []uuid.UUID
}

type MailInput struct {
	Token string
	Mail  string
}

type PollService interface {
	GetPolls(ctx context.Context, token string, withStats bool) ([]domain.StatsPoll, error)
	GetPoll(ctx context.Context, id string) (*domain.ReadPoll, error)
	PostPoll(ctx context.Context, input PollInput) (*domain.ReadPoll, error)
	PutPoll(ctx context.Context, id string, input PollInput) (*domain.ReadPoll, error)
	ClonePoll(ctx context.Context, id string) (*domain.ReadPoll, error)
	DeletePoll(ctx context.Context, id string) (*domain.ReadPoll, error)
	IsAdmin(ctx context.Context, id string, token string) (bool, error)

	GetEvents(ctx context.Context, id string) ([]*domain.Event, error)
	PostEvents(ctx context.Context, id string, events []EventInput) ([]*domain.Event, error)

	GetParticipants(ctx context.Context, id string) ([]*domain.PopulatedParticipant, error)
	GetParticipant(ctx context.Context, id string, participantID string) (*domain.Participant, error)
	PostParticipation(ctx context.Context, id string, input ParticipantInput) (*domain.Participant, error)
	EditParticipation(ctx context.Context, id string, participantID string, input ParticipantInput) (*domain.Participant, error)
	DeleteParticipation(ctx context.Context, id string, participantID string) (*domain.Participant, error)
	SetMail(ctx context.Context, input MailInput) (int64, error)

	BookEvents(ctx context.Context, id string, eventIDs []uuid.UUID) (*domain.ReadPoll, error)
}
