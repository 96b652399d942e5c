package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"github.com/vncsmyrnk/meetpoll/internal/config"
	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

const usage = `usage: migrations [flags] up|down|<migration name>

  up      apply every pending *.up.sql file in name order
  down    revert the most recently applied migration
  <name>  execute the single file matching <name>.sql, untracked`

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
	var dir string
	flagSet := pflag.NewFlagSet("migrations", pflag.ContinueOnError)
	flagSet.StringVar(&dir, "dir", filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations"), "migrations directory")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		flagSet.PrintDefaults()
	}

	cfg, err := config.Load("", flagSet, os.Args[1:])
	if err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return errors.New("a migration command is required")
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrations need the postgres store, got %q", cfg.Store)
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

	ctx := context.Background()
	m := &migrator{db: db, dir: dir, logger: logger}

	switch command := flagSet.Arg(0); command {
	case "up":
		return m.up(ctx)
	case "down":
		return m.down(ctx)
	default:
		return m.runNamed(ctx, command)
	}
}

type migrator struct {
	db     *sql.DB
	dir    string
	logger *slog.Logger
}

func (m *migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (m *migrator) up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	files, err := migrationFiles(m.dir, ".up.sql")
	if err != nil {
		return err
	}

	for _, file := range files {
		name := strings.TrimSuffix(file, ".up.sql")
		if applied[name] {
			continue
		}
		err := m.exec(ctx, file, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
		if err != nil {
			return err
		}
		m.logger.Info("migration applied", "name", name)
	}
	return nil
}

func (m *migrator) down(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	var name string
	err := m.db.QueryRowContext(ctx, `SELECT name FROM schema_migrations ORDER BY name DESC LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		m.logger.Info("nothing to revert")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find the latest migration: %w", err)
	}

	if err := m.exec(ctx, name+".down.sql", `DELETE FROM schema_migrations WHERE name = $1`, name); err != nil {
		return err
	}
	m.logger.Info("migration reverted", "name", name)
	return nil
}

// exec runs a migration file and its bookkeeping statement in one
// transaction.
func (m *migrator) exec(ctx context.Context, file string, bookkeeping string, name string) error {
	content, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, name); err != nil {
		return fmt.Errorf("failed to record %s: %w", file, err)
	}
	return tx.Commit()
}

func (m *migrator) runNamed(ctx context.Context, migrationName string) error {
	file, err := migrationFilePath(m.dir, migrationName)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute SQL file: %w", err)
	}
	m.logger.Info("migration file executed", "file", file)
	return nil
}

func migrationFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func migrationFilePath(dir string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", fmt.Errorf("invalid migration name: %w", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, f := range files {
		if !f.IsDir() && regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}
	return "", fmt.Errorf("migration file %q not found", migrationName)
}
