package pricing

import (
	"testing"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func thousand() []LineItem {
	return []LineItem{
		{ProductID: uuid.New(), Quantity: dec("2"), Price: dec("300")},
		{ProductID: uuid.New(), Quantity: dec("1"), Price: dec("400")},
	}
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name   string
		cash   string
		online string
		owed   string
		paid   string
		status enums.InvoiceStatus
	}{
		{name: "split payment settles", cash: "400", online: "600", owed: "0", paid: "1000", status: enums.InvoiceStatusPaid},
		{name: "partial", cash: "300", online: "200", owed: "500", paid: "500", status: enums.InvoiceStatusPartially},
		{name: "nothing paid", cash: "0", online: "0", owed: "1000", paid: "0", status: enums.InvoiceStatusUnpaid},
		{name: "negative clamps", cash: "-50", online: "0", owed: "1000", paid: "0", status: enums.InvoiceStatusUnpaid},
		{name: "online only", cash: "0", online: "1000", owed: "0", paid: "1000", status: enums.InvoiceStatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(thousand(), dec(tc.cash), dec(tc.online))
			if !got.Total.Equal(dec("1000")) {
				t.Fatalf("expected total 1000, got %s", got.Total)
			}
			if !got.AmountOwed.Equal(dec(tc.owed)) {
				t.Fatalf("expected owed %s, got %s", tc.owed, got.AmountOwed)
			}
			if !got.AmountPaid.Equal(dec(tc.paid)) {
				t.Fatalf("expected paid %s, got %s", tc.paid, got.AmountPaid)
			}
			if got.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, got.Status)
			}
		})
	}
}

func TestComputeTotalsInvariant(t *testing.T) {
	items := thousand()
	for cash := int64(0); cash <= 1000; cash += 125 {
		for online := int64(0); online+cash <= 1000; online += 75 {
			got := ComputeTotals(items, decimal.NewFromInt(cash), decimal.NewFromInt(online))
			if !got.AmountOwed.Add(got.AmountPaid).Equal(got.Total) {
				t.Fatalf("owed + paid != total for cash=%d online=%d", cash, online)
			}
		}
	}
}

func TestComputeTotalsFractionalSubtotal(t *testing.T) {
	items := []LineItem{{ProductID: uuid.New(), Quantity: dec("0.25"), Price: dec("2500")}}
	got := ComputeTotals(items, decimal.Zero, decimal.Zero)
	if !got.Total.Equal(dec("625")) {
		t.Fatalf("expected 625, got %s", got.Total)
	}
}

func TestComputeTotalsEmptyIsUnpaid(t *testing.T) {
	got := ComputeTotals(nil, decimal.Zero, decimal.Zero)
	if !got.Total.IsZero() || got.Status != enums.InvoiceStatusUnpaid {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestFinalize(t *testing.T) {
	if _, err := Finalize(nil, decimal.Zero, decimal.Zero); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation for empty invoice, got %v", err)
	}

	free := []LineItem{{ProductID: uuid.New(), Quantity: one, Price: decimal.Zero}}
	if _, err := Finalize(free, decimal.Zero, decimal.Zero); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation for zero total, got %v", err)
	}

	_, err := Finalize(thousand(), dec("1200"), decimal.Zero)
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected overpayment rejection, got %v", err)
	}
	if errors.As(err).Details() == nil {
		t.Fatalf("expected overpayment details")
	}

	if _, err := Finalize(thousand(), dec("-1"), dec("10")); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected negative payment rejection, got %v", err)
	}

	got, err := Finalize(thousand(), dec("400"), dec("600"))
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got.Status != enums.InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", got.Status)
	}
}
