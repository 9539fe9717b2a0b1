package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"remoteevents/internal/domain"

	"github.com/lib/pq"
)

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

const participantColumns = `
	id, event_id, contact_id, status, roles, registered_at, registered_by_id,
	is_test, fields, created_at, updated_at
`

func scanParticipant(row interface{ Scan(dest ...any) error }) (*domain.Participant, error) {
	p := &domain.Participant{}
	var (
		roles        pq.StringArray
		registeredBy sql.NullString
		fieldsJSON   []byte
	)
	err := row.Scan(
		&p.ID, &p.EventID, &p.ContactID, &p.Status, &roles, &p.RegisteredAt,
		&registeredBy, &p.IsTest, &fieldsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Roles = roles
	p.RegisteredByID = registeredBy.String
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &p.Fields); err != nil {
			return nil, fmt.Errorf("decode participant fields: %w", err)
		}
	}
	return p, nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	fieldsJSON, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("encode participant fields: %w", err)
	}
	var registeredBy any
	if p.RegisteredByID != "" {
		registeredBy = p.RegisteredByID
	}
	query := `
		INSERT INTO participants (event_id, contact_id, status, roles, registered_at, registered_by_id, is_test, fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		p.EventID, p.ContactID, p.Status, pq.Array(p.Roles), p.RegisteredAt, registeredBy, p.IsTest, fieldsJSON,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) List(ctx context.Context, f domain.ParticipantFilter) ([]*domain.Participant, error) {
	where := []string{}
	args := []any{}
	n := 1
	if f.EventID != "" {
		where = append(where, fmt.Sprintf("p.event_id = $%d", n))
		args = append(args, f.EventID)
		n++
	}
	if f.ContactID != "" {
		where = append(where, fmt.Sprintf("p.contact_id = $%d", n))
		args = append(args, f.ContactID)
		n++
	}
	if len(f.Statuses) > 0 {
		where = append(where, fmt.Sprintf("p.status = ANY($%d)", n))
		args = append(args, pq.Array(f.Statuses))
		n++
	}
	if len(f.Classes) > 0 {
		classes := make([]string, len(f.Classes))
		for i, c := range f.Classes {
			classes[i] = string(c)
		}
		where = append(where, fmt.Sprintf("s.class = ANY($%d)", n))
		args = append(args, pq.Array(classes))
		n++
	}
	if f.ExcludeTest {
		where = append(where, "p.is_test = FALSE")
	}
	query := `
		SELECT p.id, p.event_id, p.contact_id, p.status, p.roles, p.registered_at,
		       p.registered_by_id, p.is_test, p.fields, p.created_at, p.updated_at
		FROM participants p
		JOIN participant_statuses s ON s.name = p.status
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.registered_at ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) ListRegisteredBy(ctx context.Context, registeredByID string) ([]*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE registered_by_id = $1 ORDER BY registered_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, registeredByID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) Update(ctx context.Context, p *domain.Participant) error {
	fieldsJSON, err := json.Marshal(p.Fields)
	if err != nil {
		return fmt.Errorf("encode participant fields: %w", err)
	}
	query := `
		UPDATE participants
		SET status = $1, roles = $2, fields = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.DB.ExecContext(ctx, query, p.Status, pq.Array(p.Roles), fieldsJSON, p.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) UpdateStatus(ctx context.Context, ids []string, status string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE participants SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	result, err := r.DB.ExecContext(ctx, query, status, pq.Array(ids))
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
