package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"remoteevents/internal/domain"
)

type contactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) domain.ContactRepository {
	return &contactRepository{
		DB: db,
	}
}

// contactColumns maps the field keys the profiles use onto physical columns.
// Writes go through this whitelist only.
var contactColumns = []string{
	domain.ContactFieldEmail,
	domain.ContactFieldPrefix,
	domain.ContactFieldFirstName,
	domain.ContactFieldLastName,
	domain.ContactFieldOrganization,
	domain.ContactFieldPhone,
	domain.ContactFieldStreet,
	domain.ContactFieldPostalCode,
	domain.ContactFieldCity,
	domain.ContactFieldCountry,
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := fmt.Sprintf(`SELECT id, %s FROM contacts WHERE id = $1`, strings.Join(contactColumns, ", "))
	c := &domain.Contact{Fields: make(map[string]string, len(contactColumns))}
	dest := make([]any, 0, len(contactColumns)+1)
	dest = append(dest, &c.ID)
	values := make([]sql.NullString, len(contactColumns))
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	for i, col := range contactColumns {
		if values[i].Valid && values[i].String != "" {
			c.Fields[col] = values[i].String
		}
	}
	return c, nil
}

func (r *contactRepository) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	for _, col := range contactColumns {
		value, ok := fields[col]
		if !ok {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, value)
		n++
	}
	if n == 1 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE contacts SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), n)
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
