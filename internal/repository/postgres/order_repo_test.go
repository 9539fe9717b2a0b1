package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"remoteevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_Create(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("order and items in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		order := &domain.Order{
			ID:            "ord-1",
			EventID:       "ev-1",
			ContactID:     "ct-1",
			Currency:      "EUR",
			Total:         5000,
			Status:        domain.OrderStatusPending,
			PaymentMethod: domain.PaymentMethodPayLater,
			Items: []*domain.LineItem{
				{ParticipantID: "pt-1", PriceFieldID: "pf-1", Label: "Ticket", Quantity: 2, Count: 1, UnitPrice: 2500, Total: 5000},
			},
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs("ord-1", "ev-1", "ct-1", "EUR", int64(5000), domain.OrderStatusPending, domain.PaymentMethodPayLater).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))
		mock.ExpectQuery(`INSERT INTO order_line_items`).
			WithArgs("ord-1", "pt-1", "pf-1", nil, "Ticket", 2, 1, int64(2500), int64(5000)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("li-1"))
		mock.ExpectCommit()

		repo := NewOrderRepository(db)
		require.NoError(t, repo.Create(ctx, order))
		require.Equal(t, "li-1", order.Items[0].ID)
		require.Equal(t, "ord-1", order.Items[0].OrderID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when item insert fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		order := &domain.Order{
			ID: "ord-1", EventID: "ev-1", ContactID: "ct-1", Currency: "EUR",
			Total: 1000, Status: domain.OrderStatusPending, PaymentMethod: domain.PaymentMethodPayLater,
			Items: []*domain.LineItem{
				{ParticipantID: "pt-1", PriceFieldID: "pf-1", Label: "Ticket", Quantity: 1, Count: 1, UnitPrice: 1000, Total: 1000},
			},
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))
		mock.ExpectQuery(`INSERT INTO order_line_items`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		repo := NewOrderRepository(db)
		require.Error(t, repo.Create(ctx, order))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_CountedSeatsByParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("sums counted seats per participant", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"participant_id", "sum"}).
			AddRow("pt-1", 3).
			AddRow("pt-2", 1)
		mock.ExpectQuery(`SELECT participant_id, SUM\(count \* quantity\)`).
			WithArgs(pq.Array([]string{"pt-1", "pt-2", "pt-3"})).
			WillReturnRows(rows)

		repo := NewOrderRepository(db)
		got, err := repo.CountedSeatsByParticipant(ctx, []string{"pt-1", "pt-2", "pt-3"})
		require.NoError(t, err)
		require.Equal(t, map[string]int{"pt-1": 3, "pt-2": 1}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewOrderRepository(db)
		got, err := repo.CountedSeatsByParticipant(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
