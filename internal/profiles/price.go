package profiles

import (
	"fmt"
	"strconv"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
)

// Price and payment field names appended to create forms of monetary
// events. Additional-participant blocks carry them under their prefix.
const (
	PriceFieldPrefix          = "price_"
	FieldPaymentMethod        = "payment_method"
	FieldPaymentIBAN          = "payment_iban"
	FieldPaymentBIC           = "payment_bic"
	FieldPaymentAccountHolder = "payment_account_holder"
)

// PriceSpecs builds the dynamic price field specs for a monetary event.
// Oversubscribed options stay listed but are marked in the label; wholly
// unavailable ones are dropped so the form and validation agree.
func PriceSpecs(event *domain.Event, fields []*domain.PriceField, usage map[string]int, locale string) []domain.FieldSpec {
	if !event.IsMonetary || len(fields) == 0 {
		return nil
	}
	label := event.FeeLabel
	if label == "" {
		label = localize(locale, "Fees")
	}
	specs := []domain.FieldSpec{{
		Name:   "price",
		Type:   domain.FieldFieldset,
		Entity: domain.EntityNone,
		Label:  label,
		Weight: 1000,
	}}
	for i, f := range fields {
		switch f.Kind {
		case domain.PriceFieldQuantity:
			specs = append(specs, domain.FieldSpec{
				Name:        PriceFieldPrefix + f.ID,
				Type:        domain.FieldText,
				Entity:      domain.EntityNone,
				Required:    f.Required,
				Validation:  domain.RuleInteger,
				Label:       f.Label,
				Description: fmt.Sprintf("%s %.2f", event.Currency, float64(f.UnitPrice)/100),
				Parent:      "price",
				Weight:      1010 + i*10,
			})
		case domain.PriceFieldOptions:
			options := make(map[string]string, len(f.Options))
			for _, opt := range f.Options {
				optLabel := fmt.Sprintf("%s (%s %.2f)", opt.Label, event.Currency, float64(opt.Price)/100)
				if opt.MaxCount > 0 && usage[opt.ID] >= opt.MaxCount {
					optLabel += " " + localize(locale, "(sold out)")
				}
				options[opt.ID] = optLabel
			}
			specs = append(specs, domain.FieldSpec{
				Name:     PriceFieldPrefix + f.ID,
				Type:     domain.FieldSelect,
				Entity:   domain.EntityNone,
				Required: f.Required,
				Label:    f.Label,
				Parent:   "price",
				Weight:   1010 + i*10,
				Options:  options,
			})
		}
	}
	specs = append(specs, domain.FieldSpec{
		Name:     FieldPaymentMethod,
		Type:     domain.FieldSelect,
		Entity:   domain.EntityNone,
		Required: true,
		Label:    localize(locale, "Payment Method"),
		Parent:   "price",
		Weight:   1900,
		Options: map[string]string{
			domain.PaymentMethodPayLater:    localize(locale, "Pay later (invoice)"),
			domain.PaymentMethodDirectDebit: localize(locale, "SEPA direct debit"),
		},
	},
		domain.FieldSpec{
			Name:       FieldPaymentIBAN,
			Type:       domain.FieldText,
			Entity:     domain.EntityNone,
			Validation: domain.RuleIBAN,
			Label:      localize(locale, "IBAN"),
			Parent:     "price",
			Weight:     1910,
		},
		domain.FieldSpec{
			Name:       FieldPaymentBIC,
			Type:       domain.FieldText,
			Entity:     domain.EntityNone,
			Validation: domain.RuleBIC,
			Label:      localize(locale, "BIC"),
			Parent:     "price",
			Weight:     1920,
		},
		domain.FieldSpec{
			Name:      FieldPaymentAccountHolder,
			Type:      domain.FieldText,
			Entity:    domain.EntityNone,
			MaxLength: 128,
			Label:     localize(locale, "Account Holder"),
			Parent:    "price",
			Weight:    1930,
		},
	)
	return specs
}

// PriceSelection is one parsed price choice of a submission block.
type PriceSelection struct {
	Field    *domain.PriceField
	Option   *domain.PriceFieldOption // nil for quantity fields
	Quantity int
}

// Total returns the monetary total of the selection in minor units.
func (s PriceSelection) Total() int64 {
	if s.Option != nil {
		return s.Option.Price * int64(s.Quantity)
	}
	return s.Field.UnitPrice * int64(s.Quantity)
}

// SeatCount returns the capacity multiplier of the selection, 0 when the
// underlying field does not count seats.
func (s PriceSelection) SeatCount() int {
	if s.Option != nil {
		return s.Option.SeatCount
	}
	return s.Field.SeatCount
}

// CollectPriceSelections parses the price fields of one submission block
// (identified by prefix) and reports violations on the run: non-numeric
// quantities, over-max quantities, unknown or sold-out options, missing
// required fields. The same routine backs validation and order building so
// the two can never diverge.
func CollectPriceSelections(run *pipeline.Run, fields []*domain.PriceField, usage map[string]int, prefix string) []PriceSelection {
	var selections []PriceSelection
	for _, f := range fields {
		name := prefix + PriceFieldPrefix + f.ID
		value, _ := run.Submission.Field(name)
		if value == "" {
			if f.Required {
				run.AddError(name, fmt.Sprintf("Required field '%s' is missing", f.Label))
			}
			continue
		}
		switch f.Kind {
		case domain.PriceFieldQuantity:
			qty, err := strconv.Atoi(value)
			if err != nil || qty < 0 {
				run.AddError(name, fmt.Sprintf("Field '%s' must be a non-negative number", f.Label))
				continue
			}
			if qty == 0 {
				continue
			}
			if f.MaxCount > 0 && qty > f.MaxCount {
				run.AddError(name, fmt.Sprintf("Field '%s' allows at most %d", f.Label, f.MaxCount))
				continue
			}
			selections = append(selections, PriceSelection{Field: f, Quantity: qty})
		case domain.PriceFieldOptions:
			opt, ok := f.Option(value)
			if !ok {
				run.AddError(name, fmt.Sprintf("Invalid option for field '%s'", f.Label))
				continue
			}
			if opt.MaxCount > 0 && usage[opt.ID] >= opt.MaxCount {
				run.AddError(name, fmt.Sprintf("Option '%s' is no longer available", opt.Label))
				continue
			}
			selections = append(selections, PriceSelection{Field: f, Option: opt, Quantity: 1})
		}
	}
	return selections
}

// ValidatePayment checks the payment method block of a monetary
// submission: the method must be known, and direct debit requires a valid
// IBAN/BIC plus an account holder.
func ValidatePayment(run *pipeline.Run) {
	method, _ := run.Submission.Field(FieldPaymentMethod)
	switch method {
	case "":
		run.AddError(FieldPaymentMethod, "A payment method is required")
		return
	case domain.PaymentMethodPayLater:
		return
	case domain.PaymentMethodDirectDebit:
	default:
		run.AddError(FieldPaymentMethod, fmt.Sprintf("Unknown payment method '%s'", method))
		return
	}

	iban, _ := run.Submission.Field(FieldPaymentIBAN)
	if iban == "" {
		run.AddError(FieldPaymentIBAN, "IBAN is required for direct debit")
	} else if err := validate.Var(iban, "iban"); err != nil {
		run.AddError(FieldPaymentIBAN, "IBAN is not valid")
	}
	bic, _ := run.Submission.Field(FieldPaymentBIC)
	if bic == "" {
		run.AddError(FieldPaymentBIC, "BIC is required for direct debit")
	} else if err := validate.Var(bic, "bic"); err != nil {
		run.AddError(FieldPaymentBIC, "BIC is not valid")
	}
	if holder, _ := run.Submission.Field(FieldPaymentAccountHolder); holder == "" {
		run.AddError(FieldPaymentAccountHolder, "Account holder is required for direct debit")
	}
}
