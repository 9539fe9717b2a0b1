package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"remoteevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var participantCols = []string{
	"id", "event_id", "contact_id", "status", "roles", "registered_at", "registered_by_id",
	"is_test", "fields", "created_at", "updated_at",
}

func TestParticipantRepository_Create(t *testing.T) {
	ctx := context.Background()
	registeredAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		p       *domain.Participant
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			p:    domain.NewParticipant("ev-1", "ct-1", domain.StatusRegistered, nil, registeredAt),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO participants`).
					WithArgs("ev-1", "ct-1", domain.StatusRegistered, pq.Array([]string{domain.DefaultRoleAttendee}), registeredAt, nil, false, []byte("null")).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
						AddRow("pt-1", registeredAt, registeredAt))
			},
			wantID: "pt-1",
		},
		{
			name: "db error",
			p:    domain.NewParticipant("ev-1", "ct-1", domain.StatusRegistered, nil, registeredAt),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO participants`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewParticipantRepository(db)
			err = repo.Create(ctx, tt.p)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.p.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestParticipantRepository_List(t *testing.T) {
	ctx := context.Background()
	registeredAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("filters by event, contact and class", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(participantCols).
			AddRow("pt-1", "ev-1", "ct-1", domain.StatusRegistered, []byte(`{Attendee}`), registeredAt, nil, false, []byte(`{"note":"front row"}`), registeredAt, registeredAt)
		mock.ExpectQuery(`SELECT(.|\s)+FROM participants p(.|\s)+JOIN participant_statuses s`).
			WithArgs("ev-1", "ct-1", pq.Array([]string{"Positive", "Pending"})).
			WillReturnRows(rows)

		repo := NewParticipantRepository(db)
		got, err := repo.List(ctx, domain.ParticipantFilter{
			EventID:   "ev-1",
			ContactID: "ct-1",
			Classes:   []domain.StatusClass{domain.ClassPositive, domain.ClassPending},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "pt-1", got[0].ID)
		require.Equal(t, []string{"Attendee"}, got[0].Roles)
		require.Equal(t, map[string]string{"note": "front row"}, got[0].Fields)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT(.|\s)+FROM participants p`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows(participantCols))

		repo := NewParticipantRepository(db)
		got, err := repo.List(ctx, domain.ParticipantFilter{EventID: "ev-1"})
		require.NoError(t, err)
		require.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestParticipantRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		ids        []string
		status     string
		mock       func(mock sqlmock.Sqlmock)
		wantErr    bool
		isNotFound bool
	}{
		{
			name:   "batch success",
			ids:    []string{"pt-1", "pt-2"},
			status: domain.StatusCancelled,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE participants SET status = \$1`).
					WithArgs(domain.StatusCancelled, pq.Array([]string{"pt-1", "pt-2"})).
					WillReturnResult(sqlmock.NewResult(0, 2))
			},
		},
		{
			name:   "empty id list is a no-op",
			ids:    nil,
			status: domain.StatusCancelled,
			mock:   func(mock sqlmock.Sqlmock) {},
		},
		{
			name:   "no rows matched",
			ids:    []string{"pt-missing"},
			status: domain.StatusCancelled,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE participants SET status = \$1`).
					WithArgs(domain.StatusCancelled, pq.Array([]string{"pt-missing"})).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:    true,
			isNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewParticipantRepository(db)
			err = repo.UpdateStatus(ctx, tt.ids, tt.status)
			if tt.wantErr {
				require.Error(t, err)
				if tt.isNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
