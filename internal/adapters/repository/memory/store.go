// Package memory keeps polls, events and participants in process memory. It
// backs the service tests and the server's memory store mode.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
)

// Store holds the three collections. Every read returns copies, so callers
// may mutate results freely.
type Store struct {
	mu           sync.RWMutex
	polls        map[uuid.UUID]*domain.Poll
	events       map[uuid.UUID]*domain.Event
	participants map[uuid.UUID]*domain.Participant
}

func NewStore() *Store {
	return &Store{
		polls:        make(map[uuid.UUID]*domain.Poll),
		events:       make(map[uuid.UUID]*domain.Event),
		participants: make(map[uuid.UUID]*domain.Participant),
	}
}

// Len reports the size of each collection.
func (s *Store) Len() (polls, events, participants int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.polls), len(s.events), len(s.participants)
}

func copyPoll(p *domain.Poll) *domain.Poll {
	c := *p
	c.Settings = append([]byte(nil), p.Settings...)
	if len(p.Settings) == 0 {
		c.Settings = nil
	}
	c.BookedEvents = append([]uuid.UUID{}, p.BookedEvents...)
	return &c
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func copyParticipant(p *domain.Participant) *domain.Participant {
	c := *p
	c.Participation = append([]uuid.UUID{}, p.Participation...)
	c.IndeterminateParticipation = append([]uuid.UUID{}, p.IndeterminateParticipation...)
	return &c
}

func sortPolls(polls []*domain.Poll) {
	sort.SliceStable(polls, func(i, j int) bool {
		return polls[i].CreatedAt.Before(polls[j].CreatedAt)
	})
}

func sortEvents(events []*domain.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID.String() < events[j].ID.String()
		}
		return events[i].Start.Before(events[j].Start)
	})
}

func sortParticipants(participants []*domain.Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].CreatedAt.Before(participants[j].CreatedAt)
	})
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
