package mail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

const DefaultTimeout = 30 * time.Second

// Dispatcher delivers messages in the background. Each message gets its own
// goroutine and deadline; failures are logged and otherwise dropped.
type Dispatcher struct {
	mailer  ports.Mailer
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(mailer ports.Mailer, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		mailer:  mailer,
		logger:  logger.With("component", "mail"),
		timeout: timeout,
	}
}

// Notify returns immediately. The delivery outlives ctx's cancellation but
// keeps its values, so request scoped loggers still apply.
func (d *Dispatcher) Notify(ctx context.Context, msg ports.MailMessage) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		logger := logging.Or(ctx, d.logger).With("to", msg.RecipientAddress, "template", msg.Template)

		if err := d.deliver(ctx, msg); err != nil {
			logger.Error("failed to send mail", "error", err)
			return
		}
		logger.Debug("mail sent")
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, msg ports.MailMessage) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mailer panicked: %v", r)
		}
	}()
	return d.mailer.SendMail(ctx, msg)
}

// Wait blocks until every message handed to Notify has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
