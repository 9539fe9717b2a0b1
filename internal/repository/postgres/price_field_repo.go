package postgres

import (
	"context"
	"database/sql"

	"remoteevents/internal/domain"
)

type priceFieldRepository struct {
	DB *sql.DB
}

func NewPriceFieldRepository(db *sql.DB) domain.PriceFieldRepository {
	return &priceFieldRepository{
		DB: db,
	}
}

func (r *priceFieldRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.PriceField, error) {
	query := `
		SELECT id, event_id, name, label, kind, required, unit_price, seat_count, max_count, weight
		FROM price_fields
		WHERE event_id = $1
		ORDER BY weight ASC, name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fields := make([]*domain.PriceField, 0)
	byID := make(map[string]*domain.PriceField)
	for rows.Next() {
		f := &domain.PriceField{}
		if err := rows.Scan(&f.ID, &f.EventID, &f.Name, &f.Label, &f.Kind, &f.Required,
			&f.UnitPrice, &f.SeatCount, &f.MaxCount, &f.Weight); err != nil {
			return nil, err
		}
		fields = append(fields, f)
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return fields, nil
	}

	optQuery := `
		SELECT o.id, o.price_field_id, o.label, o.price, o.seat_count, o.max_count
		FROM price_field_options o
		JOIN price_fields f ON f.id = o.price_field_id
		WHERE f.event_id = $1
		ORDER BY o.weight ASC, o.label ASC
	`
	optRows, err := r.DB.QueryContext(ctx, optQuery, eventID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()
	for optRows.Next() {
		var fieldID string
		opt := domain.PriceFieldOption{}
		if err := optRows.Scan(&opt.ID, &fieldID, &opt.Label, &opt.Price, &opt.SeatCount, &opt.MaxCount); err != nil {
			return nil, err
		}
		if f, ok := byID[fieldID]; ok {
			f.Options = append(f.Options, opt)
		}
	}
	return fields, optRows.Err()
}

func (r *priceFieldRepository) OptionUsage(ctx context.Context, eventID string) (map[string]int, error) {
	query := `
		SELECT li.option_id, SUM(li.quantity)
		FROM order_line_items li
		JOIN orders o ON o.id = li.order_id
		WHERE o.event_id = $1 AND li.option_id IS NOT NULL
		GROUP BY li.option_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	usage := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		usage[id] = n
	}
	return usage, rows.Err()
}
