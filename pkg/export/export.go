// Package export renders invoices and the activity log as PDF and CSV documents.
package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Company is the letterhead printed on invoices.
type Company struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	FooterNote string
	Currency   string
}

type InvoiceLine struct {
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Subtotal decimal.Decimal
}

// Invoice is the printable view of a stored invoice.
type Invoice struct {
	ID            string
	Customer      string
	Date          time.Time
	Status        string
	Lines         []InvoiceLine
	Total         decimal.Decimal
	CashPayment   decimal.Decimal
	OnlinePayment decimal.Decimal
	AmountPaid    decimal.Decimal
	AmountOwed    decimal.Decimal
	CreatedAt     time.Time
}

type ActivityRow struct {
	Actor     string
	Action    string
	Type      string
	CreatedAt time.Time
}

// Money formats an amount with two decimals and thousands separators.
func Money(currency string, amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	if currency != "" {
		out = currency + " " + out
	}
	return out
}

// Quantity prints whole quantities without decimals.
func Quantity(q decimal.Decimal) string {
	if q.IsInteger() {
		return q.StringFixed(0)
	}
	return q.String()
}
