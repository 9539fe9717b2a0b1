package postgres

import (
	"context"
	"database/sql"

	"remoteevents/internal/domain"
)

type statusRepository struct {
	DB *sql.DB
}

func NewStatusRepository(db *sql.DB) domain.StatusRepository {
	return &statusRepository{
		DB: db,
	}
}

func (r *statusRepository) ListStatuses(ctx context.Context) ([]*domain.ParticipantStatus, error) {
	query := `SELECT name, class, is_counted FROM participant_statuses ORDER BY name ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make([]*domain.ParticipantStatus, 0)
	for rows.Next() {
		s := &domain.ParticipantStatus{}
		if err := rows.Scan(&s.Name, &s.Class, &s.IsCounted); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func (r *statusRepository) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	query := `SELECT name, is_filter FROM participant_roles ORDER BY name ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := make([]*domain.Role, 0)
	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.Name, &role.IsFilter); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
