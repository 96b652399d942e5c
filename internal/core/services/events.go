package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

// eventPlan is the difference between the stored events of a poll and the
// list a caller submitted.
type eventPlan struct {
	create []*domain.Event
	update []*domain.Event
	// rescheduled holds updated events whose start or end moved.
	rescheduled []uuid.UUID
	remove      []uuid.UUID
}

// staleVotes returns the events whose votes no longer apply: rescheduled and
// removed ones.
func (p eventPlan) staleVotes() []uuid.UUID {
	stale := make([]uuid.UUID, 0, len(p.rescheduled)+len(p.remove))
	stale = append(stale, p.rescheduled...)
	return append(stale, p.remove...)
}

// planEvents diffs current against incoming. Incoming entries without an id,
// or with an id unknown to the poll, become new events. Known ids are
// updated when their slot or note changed. Current events missing from
// incoming are removed. A repeated id is only honoured the first time.
func planEvents(pollID uuid.UUID, current []*domain.Event, incoming []ports.EventInput, newID func() uuid.UUID) eventPlan {
	byID := make(map[uuid.UUID]*domain.Event, len(current))
	for _, e := range current {
		byID[e.ID] = e
	}

	var plan eventPlan
	kept := make(map[uuid.UUID]struct{}, len(incoming))
	for _, in := range incoming {
		start, end := domain.NormalizeTime(in.Start), domain.NormalizeTime(in.End)

		existing, known := byID[in.ID]
		if in.ID == uuid.Nil || !known {
			plan.create = append(plan.create, &domain.Event{
				ID:     newID(),
				PollID: pollID,
				Start:  start,
				End:    end,
				Note:   in.Note,
			})
			continue
		}
		if _, dup := kept[in.ID]; dup {
			continue
		}
		kept[in.ID] = struct{}{}

		rescheduled := existing.Rescheduled(start, end)
		if !rescheduled && existing.Note == in.Note {
			continue
		}
		plan.update = append(plan.update, &domain.Event{
			ID:     existing.ID,
			PollID: pollID,
			Start:  start,
			End:    end,
			Note:   in.Note,
		})
		if rescheduled {
			plan.rescheduled = append(plan.rescheduled, existing.ID)
		}
	}

	for _, e := range current {
		if _, ok := kept[e.ID]; !ok {
			plan.remove = append(plan.remove, e.ID)
		}
	}

	return plan
}

func (s *pollService) GetEvents(ctx context.Context, id string) ([]*domain.Event, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePoll(ctx, pollID); err != nil {
		return nil, err
	}
	return s.events.ListByPoll(ctx, pollID)
}

// PostEvents reconciles the poll's events with the submitted list and
// returns the resulting events. Votes on rescheduled or removed events are
// pruned from every participant, and removed events are dropped from the
// poll's booked events.
func (s *pollService) PostEvents(ctx context.Context, id string, incoming []ports.EventInput) ([]*domain.Event, error) {
	pollID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validateEvents(incoming); err != nil {
		return nil, err
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	current, err := s.events.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	plan := planEvents(pollID, current, incoming, uuid.New)

	if len(plan.create) > 0 {
		if err := s.events.Create(ctx, plan.create...); err != nil {
			return nil, err
		}
	}
	for _, e := range plan.update {
		if err := s.events.Update(ctx, e); err != nil {
			return nil, err
		}
	}
	if len(plan.remove) > 0 {
		if _, err := s.events.DeleteByIDs(ctx, pollID, plan.remove); err != nil {
			return nil, err
		}
	}

	var pruned int64
	if stale := plan.staleVotes(); len(stale) > 0 {
		pruned, err = s.participants.RemoveVotes(ctx, pollID, stale)
		if err != nil {
			return nil, err
		}
	}

	if len(plan.remove) > 0 && poll.DropBookedEvents(idSet(plan.remove)) {
		if err := s.polls.Update(ctx, poll); err != nil {
			return nil, err
		}
	}

	s.log(ctx, "post_events", "poll_id", pollID).Info("events reconciled",
		"created", len(plan.create),
		"updated", len(plan.update),
		"removed", len(plan.remove),
		"pruned_participants", pruned,
	)

	return s.events.ListByPoll(ctx, pollID)
}

func (s *pollService) ensurePoll(ctx context.Context, pollID uuid.UUID) error {
	exists, err := s.polls.Exists(ctx, pollID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrPollNotFound
	}
	return nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func eventIndex(events []*domain.Event) map[uuid.UUID]*domain.Event {
	index := make(map[uuid.UUID]*domain.Event, len(events))
	for _, e := range events {
		index[e.ID] = e
	}
	return index
}
