package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

const eventColumns = `id, poll_id, start_at, end_at, note`

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) ports.EventRepository {
	return &eventRepository{
		db: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, events ...*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO poll_events (id, poll_id, start_at, end_at, note)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.ID, e.PollID, e.Start, e.End, e.Note); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *eventRepository) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM poll_events WHERE poll_id = $1 ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *eventRepository) ListByIDs(ctx context.Context, pollID uuid.UUID, ids []uuid.UUID) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM poll_events WHERE poll_id = $1 AND id = ANY($2::uuid[]) ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query, pollID, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `UPDATE poll_events SET start_at = $3, end_at = $4, note = $5 WHERE id = $1 AND poll_id = $2`
	res, err := r.db.ExecContext(ctx, query, event.ID, event.PollID, event.Start, event.End, event.Note)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return expectAffected(res, domain.ErrEventNotFound)
}

func (r *eventRepository) DeleteByIDs(ctx context.Context, pollID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM poll_events WHERE poll_id = $1 AND id = ANY($2::uuid[])`, pollID, uuidArray(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	return res.RowsAffected()
}

func (r *eventRepository) DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM poll_events WHERE poll_id = $1`, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete poll events: %w", err)
	}
	return res.RowsAffected()
}

func (r *eventRepository) CountByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll_events WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count poll events: %w", err)
	}
	return count, nil
}

func (r *eventRepository) ListPollIDs(ctx context.Context) ([]uuid.UUID, error) {
	return listPollIDs(ctx, r.db, `SELECT DISTINCT poll_id FROM poll_events ORDER BY poll_id`)
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	events := []*domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.PollID, &e.Start, &e.End, &e.Note); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Start = e.Start.UTC()
		e.End = e.End.UTC()
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func listPollIDs(ctx context.Context, db *sql.DB, query string) ([]uuid.UUID, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan poll id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating poll ids: %w", err)
	}
	return ids, nil
}
