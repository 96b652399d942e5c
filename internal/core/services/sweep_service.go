package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

// sweepService removes events and participants left behind by a poll
// deletion that stopped half way, and prunes votes that point at events
// which no longer exist.
type sweepService struct {
	pollRepo        ports.PollRepository
	eventRepo       ports.EventRepository
	participantRepo ports.ParticipantRepository
	logger          *slog.Logger
}

func NewSweepService(pollRepo ports.PollRepository, eventRepo ports.EventRepository, participantRepo ports.ParticipantRepository, logger *slog.Logger) ports.SweepService {
	if logger == nil {
		logger = slog.Default()
	}
	return &sweepService{
		pollRepo:        pollRepo,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		logger:          logger.With("service", "sweep"),
	}
}

func (s *sweepService) Sweep(ctx context.Context) (ports.SweepReport, error) {
	pollIDs, err := s.referencedPolls(ctx)
	if err != nil {
		return ports.SweepReport{}, err
	}

	var (
		wg                                   sync.WaitGroup
		orphanEvents, orphanParts, prunedPts atomic.Int64
	)
	errChan := make(chan error, len(pollIDs))

	for _, pollID := range pollIDs {
		wg.Add(1)
		go func(pID uuid.UUID) {
			defer wg.Done()

			exists, err := s.pollRepo.Exists(ctx, pID)
			if err != nil {
				errChan <- fmt.Errorf("failed to check poll %s: %w", pID, err)
				return
			}
			if !exists {
				events, parts, err := s.removeOrphans(ctx, pID)
				if err != nil {
					errChan <- err
					return
				}
				orphanEvents.Add(events)
				orphanParts.Add(parts)
				return
			}

			pruned, err := s.pruneDanglingVotes(ctx, pID)
			if err != nil {
				errChan <- err
				return
			}
			prunedPts.Add(pruned)
		}(pollID)
	}

	wg.Wait()
	close(errChan)

	report := ports.SweepReport{
		OrphanedEvents:       orphanEvents.Load(),
		OrphanedParticipants: orphanParts.Load(),
		PrunedParticipants:   prunedPts.Load(),
	}
	for err := range errChan {
		if err != nil {
			return report, err
		}
	}

	s.logger.Info("sweep finished",
		"polls", len(pollIDs),
		"orphaned_events", report.OrphanedEvents,
		"orphaned_participants", report.OrphanedParticipants,
		"pruned_participants", report.PrunedParticipants,
	)
	return report, nil
}

func (s *sweepService) referencedPolls(ctx context.Context) ([]uuid.UUID, error) {
	eventPolls, err := s.eventRepo.ListPollIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls referenced by events: %w", err)
	}
	participantPolls, err := s.participantRepo.ListPollIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls referenced by participants: %w", err)
	}
	return dedupe(append(eventPolls, participantPolls...)), nil
}

func (s *sweepService) removeOrphans(ctx context.Context, pollID uuid.UUID) (int64, int64, error) {
	events, err := s.eventRepo.DeleteByPoll(ctx, pollID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete orphaned events of poll %s: %w", pollID, err)
	}
	participants, err := s.participantRepo.DeleteByPoll(ctx, pollID)
	if err != nil {
		return events, 0, fmt.Errorf("failed to delete orphaned participants of poll %s: %w", pollID, err)
	}
	return events, participants, nil
}

// pruneDanglingVotes drops votes on events that no longer exist. It only
// issues the filtered vote removal, so edits made to participants while the
// sweep runs are kept.
func (s *sweepService) pruneDanglingVotes(ctx context.Context, pollID uuid.UUID) (int64, error) {
	events, err := s.eventRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to list events of poll %s: %w", pollID, err)
	}
	participants, err := s.participantRepo.ListByPoll(ctx, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to list participants of poll %s: %w", pollID, err)
	}

	live := make(map[uuid.UUID]struct{}, len(events))
	for _, e := range events {
		live[e.ID] = struct{}{}
	}

	var dangling []uuid.UUID
	for _, p := range participants {
		dangling = append(dangling, p.DanglingVotes(live)...)
	}
	if len(dangling) == 0 {
		return 0, nil
	}

	pruned, err := s.participantRepo.RemoveVotes(ctx, pollID, dedupe(dangling))
	if err != nil {
		return 0, fmt.Errorf("failed to prune votes of poll %s: %w", pollID, err)
	}
	return pruned, nil
}
