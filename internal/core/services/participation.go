package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

func (s *pollService) GetParticipants(ctx context.Context, id string) ([]*domain.PopulatedParticipant, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePoll(ctx, pollID); err != nil {
		return nil, err
	}

	participants, err := s.participants.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	index := eventIndex(events)
	result := make([]*domain.PopulatedParticipant, 0, len(participants))
	for _, p := range participants {
		result = append(result, p.Populate(index))
	}
	return result, nil
}

// GetParticipant returns the participant only when it belongs to the poll.
func (s *pollService) GetParticipant(ctx context.Context, id string, participantID string) (*domain.Participant, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(participantID)
	if err != nil {
		return nil, err
	}
	return s.participantOf(ctx, pollID, pid)
}

func (s *pollService) participantOf(ctx context.Context, pollID, participantID uuid.UUID) (*domain.Participant, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.PollID != pollID {
		return nil, domain.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *pollService) PostParticipation(ctx context.Context, id string, input ports.ParticipantInput) (*domain.Participant, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validateParticipant(input, true); err != nil {
		return nil, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := validateVotes(input, eventIndex(events)); err != nil {
		return nil, err
	}

	participant := &domain.Participant{
		ID:                         uuid.New(),
		PollID:                     pollID,
		Name:                       strings.TrimSpace(input.Name),
		Mail:                       input.Mail,
		Token:                      input.Token,
		Participation:              dedupe(input.Participation),
		IndeterminateParticipation: dedupe(input.IndeterminateParticipation),
		CreatedAt:                  s.now().UTC(),
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, err
	}

	if poll.AdminMail != "" {
		s.notify(ctx, adminUpdateMail(poll, participant, events))
	}
	if participant.Mail != "" {
		s.notify(ctx, participatedMail(poll, participant))
	}

	s.log(ctx, "post_participation", "poll_id", pollID, "participant_id", participant.ID).Info("participation created")
	return participant, nil
}

// EditParticipation replaces the participant's name, mail and votes. The
// token is replaced only when a new one is supplied.
func (s *pollService) EditParticipation(ctx context.Context, id string, participantID string, input ports.ParticipantInput) (*domain.Participant, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(participantID)
	if err != nil {
		return nil, err
	}
	if err := validateParticipant(input, false); err != nil {
		return nil, err
	}

	participant, err := s.participantOf(ctx, pollID, pid)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := validateVotes(input, eventIndex(events)); err != nil {
		return nil, err
	}

	participant.Name = strings.TrimSpace(input.Name)
	participant.Mail = input.Mail
	if input.Token != "" {
		participant.Token = input.Token
	}
	participant.Participation = dedupe(input.Participation)
	participant.IndeterminateParticipation = dedupe(input.IndeterminateParticipation)

	if err := s.participants.Update(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *pollService) DeleteParticipation(ctx context.Context, id string, participantID string) (*domain.Participant, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(participantID)
	if err != nil {
		return nil, err
	}

	participant, err := s.participantOf(ctx, pollID, pid)
	if err != nil {
		return nil, err
	}
	if err := s.participants.Delete(ctx, pid); err != nil {
		return nil, err
	}
	return participant, nil
}

// SetMail attaches a mail address to every participation made with the token,
// whatever the poll.
func (s *pollService) SetMail(ctx context.Context, input ports.MailInput) (int64, error) {
	if err := validateMail(input); err != nil {
		return 0, err
	}

	updated, err := s.participants.UpdateMailByToken(ctx, input.Token, input.Mail)
	if err != nil {
		return 0, err
	}
	s.log(ctx, "set_mail").Info("participant mail updated", "participants", updated)
	return updated, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
