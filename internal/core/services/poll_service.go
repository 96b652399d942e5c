package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

const cloneSuffix = " (clone)"

type pollService struct {
	polls        ports.PollRepository
	events       ports.EventRepository
	participants ports.ParticipantRepository
	notifier     ports.Notifier
	logger       *slog.Logger
	now          func() time.Time
}

func NewPollService(
	polls ports.PollRepository,
	events ports.EventRepository,
	participants ports.ParticipantRepository,
	notifier ports.Notifier,
	logger *slog.Logger,
) ports.PollService {
	if logger == nil {
		logger = slog.Default()
	}
	return &pollService{
		polls:        polls,
		events:       events,
		participants: participants,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *pollService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Or(ctx, s.logger).With(append([]any{"service", "poll", "operation", operation}, attrs...)...)
}

func (s *pollService) GetPolls(ctx context.Context, token string, withStats bool) ([]domain.StatsPoll, error) {
	result := []domain.StatsPoll{}
	if token == "" {
		return result, nil
	}

	adminPolls, err := s.polls.ListByAdminToken(ctx, token)
	if err != nil {
		return nil, err
	}

	participations, err := s.participants.ListByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	pollIDs := make([]uuid.UUID, 0, len(participations))
	for _, p := range participations {
		pollIDs = append(pollIDs, p.PollID)
	}
	participantPolls, err := s.polls.ListByIDs(ctx, pollIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	for _, poll := range append(adminPolls, participantPolls...) {
		if _, dup := seen[poll.ID]; dup {
			continue
		}
		seen[poll.ID] = struct{}{}

		item := domain.StatsPoll{ReadPoll: poll.Read()}
		if withStats {
			events, err := s.events.CountByPoll(ctx, poll.ID)
			if err != nil {
				return nil, err
			}
			participants, err := s.participants.CountByPoll(ctx, poll.ID)
			if err != nil {
				return nil, err
			}
			item.Events = &events
			item.Participants = &participants
		}
		result = append(result, item)
	}

	return result, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.ReadPoll, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	read := poll.Read()
	return &read, nil
}

func (s *pollService) PostPoll(ctx context.Context, input ports.PollInput) (*domain.ReadPoll, error) {
	if err := validatePoll(input, true); err != nil {
		return nil, err
	}

	poll := &domain.Poll{
		ID:           uuid.New(),
		Title:        input.Title,
		Description:  input.Description,
		Location:     input.Location,
		Settings:     input.Settings,
		AdminToken:   input.AdminToken,
		AdminMail:    input.AdminMail,
		BookedEvents: []uuid.UUID{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.polls.Create(ctx, poll); err != nil {
		return nil, err
	}

	s.log(ctx, "post_poll", "poll_id", poll.ID).Info("poll created")
	read := poll.Read()
	return &read, nil
}

// PutPoll replaces the mutable fields of an existing poll. The admin token is
// the poll's capability and is not replaced here.
func (s *pollService) PutPoll(ctx context.Context, id string, input ports.PollInput) (*domain.ReadPoll, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validatePoll(input, false); err != nil {
		return nil, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	poll.Title = input.Title
	poll.Description = input.Description
	poll.Location = input.Location
	poll.Settings = input.Settings
	poll.AdminMail = input.AdminMail

	if err := s.polls.Update(ctx, poll); err != nil {
		return nil, err
	}
	read := poll.Read()
	return &read, nil
}

func (s *pollService) ClonePoll(ctx context.Context, id string) (*domain.ReadPoll, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	source, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	sourceEvents, err := s.events.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	clone := &domain.Poll{
		ID:           uuid.New(),
		Title:        source.Title + cloneSuffix,
		Description:  source.Description,
		Location:     source.Location,
		Settings:     source.Settings,
		AdminToken:   source.AdminToken,
		AdminMail:    source.AdminMail,
		BookedEvents: []uuid.UUID{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.polls.Create(ctx, clone); err != nil {
		return nil, err
	}

	if len(sourceEvents) > 0 {
		copies := make([]*domain.Event, 0, len(sourceEvents))
		for _, e := range sourceEvents {
			copies = append(copies, &domain.Event{
				ID:     uuid.New(),
				PollID: clone.ID,
				Start:  e.Start,
				End:    e.End,
				Note:   e.Note,
			})
		}
		if err := s.events.Create(ctx, copies...); err != nil {
			return nil, fmt.Errorf("failed to copy events of poll %s: %w", pollID, err)
		}
	}

	s.log(ctx, "clone_poll", "poll_id", pollID, "clone_id", clone.ID).Info("poll cloned", "events", len(sourceEvents))
	read := clone.Read()
	return &read, nil
}

// DeletePoll removes the poll's dependents by filter before the poll itself,
// so a run interrupted half way can be repeated until the poll is gone.
func (s *pollService) DeletePoll(ctx context.Context, id string) (*domain.ReadPoll, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.DeleteByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.DeleteByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := s.polls.Delete(ctx, pollID); err != nil {
		return nil, err
	}

	s.log(ctx, "delete_poll", "poll_id", pollID).Info("poll deleted", "events", events, "participants", participants)
	read := poll.Read()
	return &read, nil
}

func (s *pollService) IsAdmin(ctx context.Context, id string, token string) (bool, error) {
	pollID, err := parseID(id)
	if err != nil {
		return false, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return false, err
	}
	return domain.TokensEqual(poll.AdminToken, token), nil
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return parsed, nil
}
