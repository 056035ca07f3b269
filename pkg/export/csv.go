package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var invoiceCSVHeader = []string{
	"id", "customer", "date", "status", "items", "total",
	"cash_payment", "online_payment", "amount_paid", "amount_owed", "created_at",
}

// InvoicesCSV writes one row per invoice.
func InvoicesCSV(w io.Writer, invoices []Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(invoiceCSVHeader); err != nil {
		return err
	}
	for _, inv := range invoices {
		record := []string{
			inv.ID,
			inv.Customer,
			inv.Date.UTC().Format("2006-01-02"),
			inv.Status,
			strconv.Itoa(len(inv.Lines)),
			inv.Total.StringFixed(2),
			inv.CashPayment.StringFixed(2),
			inv.OnlinePayment.StringFixed(2),
			inv.AmountPaid.StringFixed(2),
			inv.AmountOwed.StringFixed(2),
			inv.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
