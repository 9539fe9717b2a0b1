package domain

import (
	"context"
	"time"
)

// PriceFieldKind distinguishes quantity-entry fields from option lists.
type PriceFieldKind string

const (
	PriceFieldQuantity PriceFieldKind = "quantity"
	PriceFieldOptions  PriceFieldKind = "options"
)

// PriceField is one fee component configured for a monetary event.
// swagger:model PriceField
type PriceField struct {
	ID        string             `json:"id"`
	EventID   string             `json:"event_id"`
	Name      string             `json:"name"`
	Label     string             `json:"label"`
	Kind      PriceFieldKind     `json:"kind"`
	Required  bool               `json:"required"`
	UnitPrice int64              `json:"unit_price"` // minor units, quantity fields only
	SeatCount int                `json:"seat_count"` // seats per unit toward capacity, 0 = none
	MaxCount  int                `json:"max_count"`  // 0 = unlimited
	Options   []PriceFieldOption `json:"options,omitempty"`
	Weight    int                `json:"weight"`
}

// PriceFieldOption is one selectable option of an option-based price field.
// swagger:model PriceFieldOption
type PriceFieldOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Price     int64  `json:"price"`      // minor units
	SeatCount int    `json:"seat_count"` // seats toward capacity, 0 = none
	MaxCount  int    `json:"max_count"`  // 0 = unlimited
}

// Option returns the option with the given id, if any.
func (f *PriceField) Option(id string) (*PriceFieldOption, bool) {
	for i := range f.Options {
		if f.Options[i].ID == id {
			return &f.Options[i], true
		}
	}
	return nil, false
}

// PriceFieldRepository reads the price configuration of an event.
type PriceFieldRepository interface {
	ListByEventID(ctx context.Context, eventID string) ([]*PriceField, error)
	// OptionUsage returns how many units of each option id have been sold
	// for the event, keyed by option id.
	OptionUsage(ctx context.Context, eventID string) (map[string]int, error)
}

// Payment methods accepted on monetary events.
const (
	PaymentMethodPayLater    = "pay_later"
	PaymentMethodDirectDebit = "direct_debit"
)

// Order statuses.
const (
	OrderStatusPending   = "Pending"
	OrderStatusCompleted = "Completed"
)

// LineItem is one priced position of an order, attributed to the
// participant it registers. Count carries the capacity multiplier of the
// underlying price field or option.
// swagger:model LineItem
type LineItem struct {
	ID            string `json:"id"`
	OrderID       string `json:"order_id"`
	ParticipantID string `json:"participant_id"`
	PriceFieldID  string `json:"price_field_id"`
	OptionID      string `json:"option_id,omitempty"`
	Label         string `json:"label"`
	Quantity      int    `json:"quantity"`
	Count         int    `json:"count"` // seats per unit, 0 = not counted
	UnitPrice     int64  `json:"unit_price"`
	Total         int64  `json:"total"`
}

// Order groups the line items of one monetary submission.
// swagger:model Order
type Order struct {
	ID            string      `json:"id"`
	EventID       string      `json:"event_id"`
	ContactID     string      `json:"contact_id"`
	Currency      string      `json:"currency"`
	Total         int64       `json:"total"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	Items         []*LineItem `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Mandate is a SEPA direct-debit mandate referencing an order.
// swagger:model Mandate
type Mandate struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	IBAN      string    `json:"iban"`
	BIC       string    `json:"bic"`
	Holder    string    `json:"holder"`
	CreatedAt time.Time `json:"created_at"`
}

// CountedSeats is the per-participant seat total derived from counted line
// items, used by the hybrid registration count.
type CountedSeats struct {
	ParticipantID string
	Seats         int
}

// OrderRepository stores orders, line items and mandates.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	CreateMandate(ctx context.Context, mandate *Mandate) error
	// CountedSeatsByParticipant returns, for each of the given participants
	// that has counted line items, the sum of count*quantity over those
	// items. Participants without counted items are absent from the result.
	CountedSeatsByParticipant(ctx context.Context, participantIDs []string) (map[string]int, error)
}
