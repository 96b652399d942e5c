package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

const (
	subjectParticipated = "Participated in Poll"
	subjectAdminUpdate  = "Updates in Poll"
	subjectBooked       = "Poll booked"

	adminRecipientName = "Poll Admin"
	eventTimeLayout    = "Mon, 02 Jan 2006 15:04 MST"
)

// ParticipatedMail is the template data of the participation confirmation.
type ParticipatedMail struct {
	Poll        domain.ReadPoll
	Participant *domain.Participant
}

// EventVote is one row of the admin summary.
type EventVote struct {
	Start time.Time
	End   time.Time
	Vote  domain.Vote
}

// ParticipantUpdateMail is the template data sent to the poll admin.
type ParticipantUpdateMail struct {
	Poll        domain.ReadPoll
	Participant *domain.Participant
	Votes       []EventVote
}

// BookedMail is the template data sent once a poll is booked. Appointments
// the participant voted yes or maybe on end with " *".
type BookedMail struct {
	Poll         domain.ReadPoll
	Participant  *domain.Participant
	Appointments []string
}

func (s *pollService) notify(ctx context.Context, msg ports.MailMessage) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, msg)
}

func participatedMail(poll *domain.Poll, participant *domain.Participant) ports.MailMessage {
	participant = snapshot(participant)
	return ports.MailMessage{
		RecipientName:    participant.Name,
		RecipientAddress: participant.Mail,
		Subject:          subjectParticipated,
		Template:         ports.TemplateParticipated,
		Data: ParticipatedMail{
			Poll:        poll.Read(),
			Participant: participant,
		},
	}
}

func adminUpdateMail(poll *domain.Poll, participant *domain.Participant, events []*domain.Event) ports.MailMessage {
	participant = snapshot(participant)
	votes := make([]EventVote, 0, len(events))
	for _, e := range events {
		votes = append(votes, EventVote{Start: e.Start, End: e.End, Vote: participant.VoteFor(e.ID)})
	}
	return ports.MailMessage{
		RecipientName:    adminRecipientName,
		RecipientAddress: poll.AdminMail,
		Subject:          subjectAdminUpdate,
		Template:         ports.TemplateParticipant,
		Data: ParticipantUpdateMail{
			Poll:        poll.Read(),
			Participant: participant,
			Votes:       votes,
		},
	}
}

func bookedMail(poll *domain.Poll, participant *domain.Participant, booked []*domain.Event) ports.MailMessage {
	participant = snapshot(participant)
	appointments := make([]string, 0, len(booked))
	for _, e := range booked {
		line := renderEvent(e)
		if participant.VoteFor(e.ID) != domain.VoteNo {
			line += " *"
		}
		appointments = append(appointments, line)
	}
	return ports.MailMessage{
		RecipientName:    participant.Name,
		RecipientAddress: participant.Mail,
		Subject:          subjectBooked,
		Template:         ports.TemplateBook,
		Data: BookedMail{
			Poll:         poll.Read(),
			Participant:  participant,
			Appointments: appointments,
		},
	}
}

func renderEvent(e *domain.Event) string {
	return fmt.Sprintf("%s - %s", e.Start.UTC().Format(eventTimeLayout), e.End.UTC().Format(eventTimeLayout))
}

// snapshot copies the participant so a pending delivery never observes later
// edits made by the caller.
func snapshot(participant *domain.Participant) *domain.Participant {
	c := *participant
	c.Participation = append([]uuid.UUID(nil), participant.Participation...)
	c.IndeterminateParticipation = append([]uuid.UUID(nil), participant.IndeterminateParticipation...)
	return &c
}
