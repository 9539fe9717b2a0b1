package postgres

import (
	"context"
	"database/sql"
	"errors"

	"remoteevents/internal/domain"

	"github.com/lib/pq"
)

type sessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) domain.SessionRepository {
	return &sessionRepository{
		DB: db,
	}
}

const sessionColumns = `
	id, event_id, slot_id, title, description, location, start_time, end_time,
	max_participants, is_active, created_at, updated_at
`

func scanSession(row interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	s := &domain.Session{}
	var (
		slotID, desc, location sql.NullString
		startTime, endTime     sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.EventID, &slotID, &s.Title, &desc, &location, &startTime, &endTime,
		&s.MaxParticipants, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SlotID = slotID.String
	s.Description = desc.String
	s.Location = location.String
	if startTime.Valid {
		s.StartTime = &startTime.Time
	}
	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	return s, nil
}

func (r *sessionRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE event_id = $1 ORDER BY start_time ASC NULLS LAST, title ASC`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]*domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *sessionRepository) ListSlotsByEventID(ctx context.Context, eventID string) ([]*domain.Slot, error) {
	query := `SELECT id, event_id, label, weight FROM slots WHERE event_id = $1 ORDER BY weight ASC, label ASC`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s := &domain.Slot{}
		if err := rows.Scan(&s.ID, &s.EventID, &s.Label, &s.Weight); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *sessionRepository) ListSpeakersByEventID(ctx context.Context, eventID string) ([]*domain.Speaker, error) {
	query := `
		SELECT id, event_id, session_id, name, role, bio
		FROM speakers
		WHERE event_id = $1
		ORDER BY name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	speakers := make([]*domain.Speaker, 0)
	for rows.Next() {
		sp := &domain.Speaker{}
		var sessionID, role, bio sql.NullString
		if err := rows.Scan(&sp.ID, &sp.EventID, &sessionID, &sp.Name, &role, &bio); err != nil {
			return nil, err
		}
		sp.SessionID = sessionID.String
		sp.Role = role.String
		sp.Bio = bio.String
		speakers = append(speakers, sp)
	}
	return speakers, rows.Err()
}

func (r *sessionRepository) CountRegistrations(ctx context.Context, sessionIDs []string) (map[string]int, error) {
	if len(sessionIDs) == 0 {
		return map[string]int{}, nil
	}
	query := `
		SELECT session_id, COUNT(*)
		FROM session_registrations
		WHERE session_id = ANY($1)
		GROUP BY session_id
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(sessionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r *sessionRepository) ListRegistrationsByParticipant(ctx context.Context, participantID string) ([]*domain.SessionRegistration, error) {
	query := `
		SELECT id, session_id, participant_id, created_at
		FROM session_registrations
		WHERE participant_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	regs := make([]*domain.SessionRegistration, 0)
	for rows.Next() {
		reg := &domain.SessionRegistration{}
		if err := rows.Scan(&reg.ID, &reg.SessionID, &reg.ParticipantID, &reg.CreatedAt); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *sessionRepository) CreateRegistration(ctx context.Context, reg *domain.SessionRegistration) error {
	query := `
		INSERT INTO session_registrations (session_id, participant_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, reg.SessionID, reg.ParticipantID).Scan(&reg.ID, &reg.CreatedAt)
}

func (r *sessionRepository) DeleteRegistration(ctx context.Context, sessionID, participantID string) error {
	query := `DELETE FROM session_registrations WHERE session_id = $1 AND participant_id = $2`
	result, err := r.DB.ExecContext(ctx, query, sessionID, participantID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
