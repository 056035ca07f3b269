package pricing

import (
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Totals is the payment reconciliation of a set of line items.
type Totals struct {
	Total      decimal.Decimal     `json:"total"`
	AmountPaid decimal.Decimal     `json:"amountPaid"`
	AmountOwed decimal.Decimal     `json:"amountOwed"`
	Status     enums.InvoiceStatus `json:"status"`
}

// ComputeTotals sums the items and reconciles cash and online payments against them.
// It never fails; Finalize applies the submission rules.
func ComputeTotals(items []LineItem, cash, online decimal.Decimal) Totals {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	paid := decimal.Max(decimal.Zero, cash.Add(online))
	owed := decimal.Max(decimal.Zero, total.Sub(paid))

	return Totals{
		Total:      total,
		AmountPaid: paid,
		AmountOwed: owed,
		Status:     statusFor(total, owed),
	}
}

// Finalize computes totals for an invoice about to be stored. Empty drafts, zero totals,
// negative payments and overpayment are rejected.
func Finalize(items []LineItem, cash, online decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, errors.New(errors.CodeValidation, "invoice requires at least one item")
	}
	if cash.IsNegative() || online.IsNegative() {
		return Totals{}, errors.New(errors.CodeValidation, "payments cannot be negative")
	}

	totals := ComputeTotals(items, cash, online)
	if !totals.Total.IsPositive() {
		return Totals{}, errors.New(errors.CodeValidation, "invoice total must be greater than zero")
	}
	if totals.AmountPaid.GreaterThan(totals.Total) {
		return Totals{}, errors.New(errors.CodeValidation, "amount paid cannot exceed total invoice amount").
			WithDetails(map[string]any{
				"total":      totals.Total.String(),
				"amountPaid": totals.AmountPaid.String(),
			})
	}
	return totals, nil
}

func statusFor(total, owed decimal.Decimal) enums.InvoiceStatus {
	switch {
	case owed.IsZero() && total.IsPositive():
		return enums.InvoiceStatusPaid
	case owed.IsPositive() && owed.LessThan(total):
		return enums.InvoiceStatusPartially
	default:
		return enums.InvoiceStatusUnpaid
	}
}
