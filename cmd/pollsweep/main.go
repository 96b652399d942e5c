package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"github.com/vncsmyrnk/meetpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/meetpoll/internal/config"
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
	var timeout time.Duration
	flagSet := pflag.NewFlagSet("pollsweep", pflag.ContinueOnError)
	flagSet.DurationVar(&timeout, "timeout", 5*time.Minute, "abort the sweep after this long")

	cfg, err := config.Load("", flagSet, os.Args[1:])
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("the sweep needs the postgres store, got %q", cfg.Store)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to reach postgres: %w", err)
	}

	sweepService := services.NewSweepService(
		postgres.NewPollRepository(db),
		postgres.NewEventRepository(db),
		postgres.NewParticipantRepository(db),
		logger,
	)

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("starting poll sweep")

	report, err := sweepService.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	logger.Info("poll sweep completed",
		"orphaned_events", report.OrphanedEvents,
		"orphaned_participants", report.OrphanedParticipants,
		"pruned_participants", report.PrunedParticipants,
	)
	return nil
}
