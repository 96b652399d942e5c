package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
)

// BookEvents replaces the poll's booked events with the poll's events whose
// id is in eventIDs, then tells every participant with a mail address.
// Booking never locks the poll; events and participations stay editable.
func (s *pollService) BookEvents(ctx context.Context, id string, eventIDs []uuid.UUID) (*domain.ReadPoll, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	booked := []*domain.Event{}
	if len(eventIDs) > 0 {
		booked, err = s.events.ListByIDs(ctx, pollID, eventIDs)
		if err != nil {
			return nil, err
		}
	}

	poll.BookedEvents = make([]uuid.UUID, 0, len(booked))
	for _, e := range booked {
		poll.BookedEvents = append(poll.BookedEvents, e.ID)
	}
	if err := s.polls.Update(ctx, poll); err != nil {
		return nil, err
	}

	participants, err := s.participants.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	notified := 0
	for _, participant := range participants {
		if participant.Mail == "" {
			continue
		}
		s.notify(ctx, bookedMail(poll, participant, booked))
		notified++
	}

	s.log(ctx, "book_events", "poll_id", pollID).Info("events booked", "booked", len(booked), "notified", notified)
	read := poll.Read()
	return &read, nil
}
