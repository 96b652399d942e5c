package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a candidate time slot of a poll.
type Event struct {
	ID     uuid.UUID `json:"id"`
	PollID uuid.UUID `json:"poll_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Note   string    `json:"note,omitempty"`
}

// Rescheduled reports whether start or end differ from the stored slot.
func (e *Event) Rescheduled(start, end time.Time) bool {
	return !e.Start.Equal(start) || !e.End.Equal(end)
}

// NormalizeTime drops the monotonic clock and sub-microsecond precision so
// that stored and incoming timestamps compare equal after a database round trip.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
