package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"github.com/vncsmyrnk/meetpoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/mail"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/meetpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/meetpoll/internal/config"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
	"github.com/vncsmyrnk/meetpoll/internal/core/services"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	cfg, err := config.Load("", flagSet, os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	polls, events, participants, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog, err := mail.DefaultCatalog(cfg.BaseURL)
	if err != nil {
		return err
	}
	var mailer ports.Mailer
	if cfg.SMTP.Enabled() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, catalog)
	} else {
		logger.Warn("SMTP_HOST not set, mails are only logged")
		mailer = mail.NewLogMailer(catalog, logger)
	}
	dispatcher := mail.NewDispatcher(mailer, logger, cfg.MailTimeout)

	service := services.NewPollService(polls, events, participants, dispatcher, logger)
	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: http.NewHandler(service, logger)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// pending notifications are allowed to finish
	dispatcher.Wait()
	return nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (ports.PollRepository, ports.EventRepository, ports.ParticipantRepository, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		store := memory.NewStore()
		return memory.NewPollRepository(store),
			memory.NewEventRepository(store),
			memory.NewParticipantRepository(store),
			func() {},
			nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return postgres.NewPollRepository(db),
		postgres.NewEventRepository(db),
		postgres.NewParticipantRepository(db),
		func() { db.Close() },
		nil
}
