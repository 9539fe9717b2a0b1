package postgres

import (
	"context"
	"database/sql"

	"remoteevents/internal/domain"
)

type participantChangeRepository struct {
	DB *sql.DB
}

func NewParticipantChangeRepository(db *sql.DB) domain.ParticipantChangeRepository {
	return &participantChangeRepository{
		DB: db,
	}
}

func (r *participantChangeRepository) Record(ctx context.Context, changes []*domain.ParticipantChange) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO participant_changes (participant_id, field, old_value, new_value, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, changed_at
	`
	for _, c := range changes {
		err = tx.QueryRowContext(ctx, query,
			c.ParticipantID, c.Field, c.OldValue, c.NewValue, c.Source,
		).Scan(&c.ID, &c.ChangedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *participantChangeRepository) ListByParticipantID(ctx context.Context, participantID string) ([]*domain.ParticipantChange, error) {
	query := `
		SELECT id, participant_id, field, old_value, new_value, source, changed_at
		FROM participant_changes
		WHERE participant_id = $1
		ORDER BY changed_at ASC, id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	changes := make([]*domain.ParticipantChange, 0)
	for rows.Next() {
		c := &domain.ParticipantChange{}
		if err := rows.Scan(&c.ID, &c.ParticipantID, &c.Field, &c.OldValue, &c.NewValue, &c.Source, &c.ChangedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
