package domain

import (
	"time"

	"github.com/google/uuid"
)

type Participant struct {
	ID                         uuid.UUID   `json:"id"`
	PollID                     uuid.UUID   `json:"poll_id"`
	Name                       string      `json:"name"`
	Mail                       string      `json:"mail,omitempty"`
	Token                      string      `json:"-"`
	Participation              []uuid.UUID `json:"participation"`
	IndeterminateParticipation []uuid.UUID `json:"indeterminate_participation"`
	CreatedAt                  time.Time   `json:"created_at"`
}

// PopulatedParticipant is a Participant whose vote sets are resolved to the
// referenced events.
type PopulatedParticipant struct {
	ID                         uuid.UUID `json:"id"`
	PollID                     uuid.UUID `json:"poll_id"`
	Name                       string    `json:"name"`
	Participation              []Event   `json:"participation"`
	IndeterminateParticipation []Event   `json:"indeterminate_participation"`
	CreatedAt                  time.Time `json:"created_at"`
}

type Vote int

const (
	VoteNo Vote = iota
	VoteMaybe
	VoteYes
)

func (v Vote) String() string {
	switch v {
	case VoteYes:
		return "yes"
	case VoteMaybe:
		return "maybe"
	default:
		return "no"
	}
}

// Class is the css class used by mail templates.
func (v Vote) Class() string {
	return "p-" + v.String()
}

func (v Vote) Icon() string {
	switch v {
	case VoteYes:
		return "✓"
	case VoteMaybe:
		return "?"
	default:
		return "X"
	}
}

// VoteFor returns the participant's vote on an event. A yes wins over a maybe
// when the event appears in both sets.
func (p *Participant) VoteFor(eventID uuid.UUID) Vote {
	for _, id := range p.Participation {
		if id == eventID {
			return VoteYes
		}
	}
	for _, id := range p.IndeterminateParticipation {
		if id == eventID {
			return VoteMaybe
		}
	}
	return VoteNo
}

// RemoveVotes drops every reference to the given events from both vote sets
// and reports whether anything changed.
func (p *Participant) RemoveVotes(eventIDs map[uuid.UUID]struct{}) bool {
	yes, yesChanged := without(p.Participation, eventIDs)
	maybe, maybeChanged := without(p.IndeterminateParticipation, eventIDs)
	p.Participation = yes
	p.IndeterminateParticipation = maybe
	return yesChanged || maybeChanged
}

// DanglingVotes returns the voted event ids missing from events.
func (p *Participant) DanglingVotes(events map[uuid.UUID]struct{}) []uuid.UUID {
	var dangling []uuid.UUID
	for _, votes := range [][]uuid.UUID{p.Participation, p.IndeterminateParticipation} {
		for _, id := range votes {
			if _, ok := events[id]; !ok {
				dangling = append(dangling, id)
			}
		}
	}
	return dangling
}

// Populate resolves vote references against the poll's events. References
// to unknown events are skipped.
func (p *Participant) Populate(events map[uuid.UUID]*Event) *PopulatedParticipant {
	resolve := func(ids []uuid.UUID) []Event {
		out := make([]Event, 0, len(ids))
		for _, id := range ids {
			if e, ok := events[id]; ok {
				out = append(out, *e)
			}
		}
		return out
	}
	return &PopulatedParticipant{
		ID:                         p.ID,
		PollID:                     p.PollID,
		Name:                       p.Name,
		Participation:              resolve(p.Participation),
		IndeterminateParticipation: resolve(p.IndeterminateParticipation),
		CreatedAt:                  p.CreatedAt,
	}
}

func without(ids []uuid.UUID, drop map[uuid.UUID]struct{}) ([]uuid.UUID, bool) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out, len(out) != len(ids)
}
