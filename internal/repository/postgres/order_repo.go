package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"remoteevents/internal/domain"

	"github.com/lib/pq"
)

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{
		DB: db,
	}
}

// Create inserts the order and its line items in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, event_id, contact_id, currency, total, status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, query,
		order.ID, order.EventID, order.ContactID, order.Currency, order.Total, order.Status, order.PaymentMethod,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_line_items (order_id, participant_id, price_field_id, option_id, label, quantity, count, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	for _, item := range order.Items {
		var optionID any
		if item.OptionID != "" {
			optionID = item.OptionID
		}
		err = tx.QueryRowContext(ctx, itemQuery,
			order.ID, item.ParticipantID, item.PriceFieldID, optionID, item.Label,
			item.Quantity, item.Count, item.UnitPrice, item.Total,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
		item.OrderID = order.ID
	}
	return tx.Commit()
}

func (r *orderRepository) CreateMandate(ctx context.Context, mandate *domain.Mandate) error {
	query := `
		INSERT INTO mandates (order_id, iban, bic, holder)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		mandate.OrderID, mandate.IBAN, mandate.BIC, mandate.Holder,
	).Scan(&mandate.ID, &mandate.CreatedAt)
}

func (r *orderRepository) CountedSeatsByParticipant(ctx context.Context, participantIDs []string) (map[string]int, error) {
	if len(participantIDs) == 0 {
		return map[string]int{}, nil
	}
	query := `
		SELECT participant_id, SUM(count * quantity)
		FROM order_line_items
		WHERE participant_id = ANY($1) AND count > 0
		GROUP BY participant_id
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(participantIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		seats[id] = n
	}
	return seats, rows.Err()
}
