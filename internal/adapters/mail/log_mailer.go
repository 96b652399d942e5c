package mail

import (
	"context"
	"log/slog"

	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

// LogMailer renders messages and writes them to the log instead of sending
// them. It is used when no SMTP relay is configured.
type LogMailer struct {
	catalog *Catalog
	logger  *slog.Logger
}

func NewLogMailer(catalog *Catalog, logger *slog.Logger) *LogMailer {
	return &LogMailer{catalog: catalog, logger: logger}
}

func (m *LogMailer) SendMail(ctx context.Context, msg ports.MailMessage) error {
	rendered, err := m.catalog.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}

	logger := logging.Or(ctx, m.logger)
	logger.Info("mail not sent, no smtp relay configured",
		"to", msg.RecipientAddress,
		"subject", msg.Subject,
		"template", msg.Template,
	)
	logger.Debug("mail body", "to", msg.RecipientAddress, "text", rendered.Text)
	return nil
}
