package postgres

import (
	"context"
	"database/sql"
	"errors"

	"remoteevents/internal/domain"

	"github.com/lib/pq"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `
	id, title, description, start_date, end_date, is_active, registration_suspended,
	registration_start, registration_end, max_participants, has_waitlist,
	requires_approval, requires_contact, allow_selfcancelxfer, selfcancelxfer_hours,
	profiles, default_profile, update_profiles, default_update_profile,
	is_monetary, currency, fee_label, allow_multiple, max_additional_participants,
	intro_text, footer_text, booked_out_text, created_at, updated_at
`

func scanEvent(row interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		desc, currency, feeLabel     sql.NullString
		intro, footer, bookedOut     sql.NullString
		defProfile, defUpdateProfile sql.NullString
		endDate, regStart, regEnd    sql.NullTime
		profiles, updateProfiles     pq.StringArray
	)
	err := row.Scan(
		&e.ID, &e.Title, &desc, &e.StartDate, &endDate, &e.IsActive, &e.Suspended,
		&regStart, &regEnd, &e.MaxParticipants, &e.HasWaitlist,
		&e.RequiresApproval, &e.RequiresContact, &e.AllowSelfCancelXfer, &e.SelfCancelXferHours,
		&profiles, &defProfile, &updateProfiles, &defUpdateProfile,
		&e.IsMonetary, &currency, &feeLabel, &e.AllowMultiple, &e.MaxAdditionalParticipants,
		&intro, &footer, &bookedOut, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Description = desc.String
	e.Currency = currency.String
	e.FeeLabel = feeLabel.String
	e.IntroText = intro.String
	e.FooterText = footer.String
	e.BookedOutText = bookedOut.String
	e.DefaultProfile = defProfile.String
	e.DefaultUpdateProfile = defUpdateProfile.String
	e.Profiles = profiles
	e.UpdateProfiles = updateProfiles
	if endDate.Valid {
		e.EndDate = &endDate.Time
	}
	if regStart.Valid {
		e.RegistrationStart = &regStart.Time
	}
	if regEnd.Valid {
		e.RegistrationEnd = &regEnd.Time
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListActive(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active = TRUE ORDER BY start_date ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
