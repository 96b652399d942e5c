package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/meetpoll/internal/core/domain"
	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

const participantColumns = `id, poll_id, name, mail, token, participation, indeterminate_participation, created_at`

type participantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) ports.ParticipantRepository {
	return &participantRepository{
		db: db,
	}
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (id, poll_id, name, mail, token, participation, indeterminate_participation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.PollID, p.Name, p.Mail, p.Token,
		uuidArray(p.Participation), uuidArray(p.IndeterminateParticipation), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (r *participantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

func (r *participantRepository) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE poll_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	return scanParticipants(rows)
}

func (r *participantRepository) ListByToken(ctx context.Context, token string) ([]*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE token = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by token: %w", err)
	}
	defer rows.Close()

	return scanParticipants(rows)
}

func (r *participantRepository) Update(ctx context.Context, p *domain.Participant) error {
	query := `
		UPDATE participants
		SET name = $2, mail = $3, token = $4, participation = $5, indeterminate_participation = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Mail, p.Token,
		uuidArray(p.Participation), uuidArray(p.IndeterminateParticipation),
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return expectAffected(res, domain.ErrParticipantNotFound)
}

func (r *participantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return expectAffected(res, domain.ErrParticipantNotFound)
}

func (r *participantRepository) DeleteByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE poll_id = $1`, pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete poll participants: %w", err)
	}
	return res.RowsAffected()
}

func (r *participantRepository) CountByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// RemoveVotes rewrites both vote arrays in one statement, keeping the order
// of the remaining entries.
func (r *participantRepository) RemoveVotes(ctx context.Context, pollID uuid.UUID, eventIDs []uuid.UUID) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE participants
		SET participation = ARRAY(
		        SELECT e FROM unnest(participation) WITH ORDINALITY AS t(e, n)
		        WHERE e <> ALL($2::uuid[]) ORDER BY n
		    ),
		    indeterminate_participation = ARRAY(
		        SELECT e FROM unnest(indeterminate_participation) WITH ORDINALITY AS t(e, n)
		        WHERE e <> ALL($2::uuid[]) ORDER BY n
		    )
		WHERE poll_id = $1
		  AND (participation && $2::uuid[] OR indeterminate_participation && $2::uuid[])
	`
	res, err := r.db.ExecContext(ctx, query, pollID, uuidArray(eventIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to remove votes: %w", err)
	}
	return res.RowsAffected()
}

func (r *participantRepository) UpdateMailByToken(ctx context.Context, token string, mail string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET mail = $2 WHERE token = $1`, token, mail)
	if err != nil {
		return 0, fmt.Errorf("failed to update participant mail: %w", err)
	}
	return res.RowsAffected()
}

func (r *participantRepository) ListPollIDs(ctx context.Context) ([]uuid.UUID, error) {
	return listPollIDs(ctx, r.db, `SELECT DISTINCT poll_id FROM participants ORDER BY poll_id`)
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(
		&p.ID, &p.PollID, &p.Name, &p.Mail, &p.Token,
		scanUUIDs(&p.Participation), scanUUIDs(&p.IndeterminateParticipation), &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanParticipants(rows *sql.Rows) ([]*domain.Participant, error) {
	participants := []*domain.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}
