package services

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

const (
	maxTitleLength = 200
	maxNameLength  = 100
)

func validatePoll(input ports.PollInput, creating bool) error {
	vErr := &domain.ValidationError{}

	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		vErr.Add("title", "title is required")
	case len(title) > maxTitleLength:
		vErr.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	if creating && input.AdminToken == "" {
		vErr.Add("admin_token", "admin token is required")
	}
	if input.AdminMail != "" && !validAddress(input.AdminMail) {
		vErr.Add("admin_mail", "admin mail is not a valid address")
	}
	if len(input.Settings) > 0 {
		var settings map[string]any
		if err := json.Unmarshal(input.Settings, &settings); err != nil {
			vErr.Add("settings", "settings must be a JSON object")
		}
	}

	return vErr.OrNil()
}

func validateEvents(events []ports.EventInput) error {
	vErr := &domain.ValidationError{}
	for i, e := range events {
		field := fmt.Sprintf("events[%d]", i)
		if e.Start.IsZero() {
			vErr.Add(field+".start", "start is required")
		}
		if e.End.IsZero() {
			vErr.Add(field+".end", "end is required")
		}
		if !e.Start.IsZero() && !e.End.IsZero() && e.End.Before(e.Start) {
			vErr.Add(field+".end", "end must not be before start")
		}
	}
	return vErr.OrNil()
}

func validateParticipant(input ports.ParticipantInput, requireToken bool) error {
	vErr := &domain.ValidationError{}

	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		vErr.Add("name", "name is required")
	case len(name) > maxNameLength:
		vErr.Add("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if requireToken && input.Token == "" {
		vErr.Add("token", "token is required")
	}
	if input.Mail != "" && !validAddress(input.Mail) {
		vErr.Add("mail", "mail is not a valid address")
	}

	return vErr.OrNil()
}

// validateVotes ensures every vote references one of the poll's events.
func validateVotes(input ports.ParticipantInput, events map[uuid.UUID]*domain.Event) error {
	vErr := &domain.ValidationError{}
	check := func(field string, ids []uuid.UUID) {
		for i, id := range ids {
			if _, ok := events[id]; !ok {
				vErr.Add(fmt.Sprintf("%s[%d]", field, i), "unknown event "+id.String())
			}
		}
	}
	check("participation", input.Participation)
	check("indeterminate_participation", input.IndeterminateParticipation)
	return vErr.OrNil()
}

func validateMail(input ports.MailInput) error {
	vErr := &domain.ValidationError{}
	if input.Token == "" {
		vErr.Add("token", "token is required")
	}
	if input.Mail == "" {
		vErr.Add("mail", "mail is required")
	} else if !validAddress(input.Mail) {
		vErr.Add("mail", "mail is not a valid address")
	}
	return vErr.OrNil()
}

func validAddress(address string) bool {
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}
