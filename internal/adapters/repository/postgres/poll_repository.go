package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

const pollColumns = `id, title, description, location, settings, admin_token, admin_mail, booked_events, created_at`

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	query := `
		INSERT INTO polls (id, title, description, location, settings, admin_token, admin_mail, booked_events, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		poll.ID, poll.Title, poll.Description, poll.Location, settingsValue(poll.Settings),
		poll.AdminToken, poll.AdminMail, uuidArray(poll.BookedEvents), poll.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`

	poll, err := scanPoll(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return poll, nil
}

func (r *pollRepository) Update(ctx context.Context, poll *domain.Poll) error {
	query := `
		UPDATE polls
		SET title = $2, description = $3, location = $4, settings = $5,
		    admin_token = $6, admin_mail = $7, booked_events = $8
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		poll.ID, poll.Title, poll.Description, poll.Location, settingsValue(poll.Settings),
		poll.AdminToken, poll.AdminMail, uuidArray(poll.BookedEvents),
	)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	return expectAffected(res, domain.ErrPollNotFound)
}

func (r *pollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	return expectAffected(res, domain.ErrPollNotFound)
}

func (r *pollRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check poll: %w", err)
	}
	return exists, nil
}

func (r *pollRepository) ListByAdminToken(ctx context.Context, token string) ([]*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE admin_token = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin polls: %w", err)
	}
	defer rows.Close()

	return scanPolls(rows)
}

func (r *pollRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Poll, error) {
	if len(ids) == 0 {
		return []*domain.Poll{}, nil
	}
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = ANY($1::uuid[]) ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	return scanPolls(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var (
		poll     domain.Poll
		settings []byte
	)
	err := row.Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.Location, &settings,
		&poll.AdminToken, &poll.AdminMail, scanUUIDs(&poll.BookedEvents), &poll.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 && string(settings) != "{}" {
		poll.Settings = json.RawMessage(settings)
	}
	return &poll, nil
}

func scanPolls(rows *sql.Rows) ([]*domain.Poll, error) {
	polls := []*domain.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}

func settingsValue(settings json.RawMessage) string {
	if len(settings) == 0 {
		return "{}"
	}
	return string(settings)
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
