package domain

import "errors"

var (
	ErrPollNotFound        = errors.New("poll not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidID           = errors.New("invalid id")
	ErrForbidden           = errors.New("forbidden")
)

// IsNotFound reports whether err refers to a missing poll, event or participant.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPollNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrParticipantNotFound)
}
