package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"remoteevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestContactRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("maps columns to fields, skips empty ones", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cols := append([]string{"id"}, contactColumns...)
		mock.ExpectQuery(`SELECT id, email,(.|\s)+FROM contacts WHERE id = \$1`).
			WithArgs("ct-1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("ct-1", "ada@example.org", nil, "Ada", "Lovelace", "", nil, nil, nil, nil, nil))

		repo := NewContactRepository(db)
		got, err := repo.GetByID(ctx, "ct-1")
		require.NoError(t, err)
		require.Equal(t, "ct-1", got.ID)
		require.Equal(t, map[string]string{
			domain.ContactFieldEmail:     "ada@example.org",
			domain.ContactFieldFirstName: "Ada",
			domain.ContactFieldLastName:  "Lovelace",
		}, got.Fields)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email,(.|\s)+FROM contacts WHERE id = \$1`).
			WithArgs("ct-missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewContactRepository(db)
		got, err := repo.GetByID(ctx, "ct-missing")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()

	t.Run("writes only whitelisted submitted columns", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE contacts SET updated_at = NOW\(\), email = \$1, first_name = \$2 WHERE id = \$3`).
			WithArgs("ada@example.org", "Ada", "ct-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewContactRepository(db)
		err = repo.UpdateFields(ctx, "ct-1", map[string]string{
			domain.ContactFieldEmail:     "ada@example.org",
			domain.ContactFieldFirstName: "Ada",
			"not_a_column":               "ignored",
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no known fields is a no-op", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewContactRepository(db)
		err = repo.UpdateFields(ctx, "ct-1", map[string]string{"not_a_column": "x"})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing contact", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE contacts SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewContactRepository(db)
		err = repo.UpdateFields(ctx, "ct-missing", map[string]string{domain.ContactFieldEmail: "x@example.org"})
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
