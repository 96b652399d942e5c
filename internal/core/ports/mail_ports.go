package ports

import "context"

const (
	TemplateParticipated = "participated"
	TemplateParticipant  = "participant"
	TemplateBook         = "book"
)

type MailMessage struct {
	RecipientName    string
	RecipientAddress string
	Subject          string
	Template         string
	Data             any
}

// Mailer delivers a single message synchronously.
type Mailer interface {
	SendMail(ctx context.Context, msg MailMessage) error
}

// Notifier hands a message off for delivery without waiting for the result.
// Delivery failures never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, msg MailMessage)
}
