package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location,omitempty"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	AdminToken   string          `json:"admin_token"`
	AdminMail    string          `json:"admin_mail,omitempty"`
	BookedEvents []uuid.UUID     `json:"booked_events"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ReadPoll is the projection of a Poll returned to callers that do not hold
// the admin token. It never carries AdminToken or AdminMail.
type ReadPoll struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location,omitempty"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	BookedEvents []uuid.UUID     `json:"booked_events"`
	Booked       bool            `json:"booked"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StatsPoll extends ReadPoll with event and participant counts. The counts
// are nil unless they were requested.
type StatsPoll struct {
	ReadPoll
	Events       *int64 `json:"events,omitempty"`
	Participants *int64 `json:"participants,omitempty"`
}

func (p *Poll) Read() ReadPoll {
	booked := make([]uuid.UUID, len(p.BookedEvents))
	copy(booked, p.BookedEvents)
	return ReadPoll{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Location:     p.Location,
		Settings:     p.Settings,
		BookedEvents: booked,
		Booked:       p.IsBooked(),
		CreatedAt:    p.CreatedAt,
	}
}

// IsBooked reports whether the poll left the draft state.
func (p *Poll) IsBooked() bool {
	return len(p.BookedEvents) > 0
}

// DropBookedEvents removes the given event ids from BookedEvents and reports
// whether anything changed.
func (p *Poll) DropBookedEvents(ids map[uuid.UUID]struct{}) bool {
	kept := p.BookedEvents[:0:0]
	for _, id := range p.BookedEvents {
		if _, drop := ids[id]; drop {
			continue
		}
		kept = append(kept, id)
	}
	changed := len(kept) != len(p.BookedEvents)
	p.BookedEvents = kept
	return changed
}
