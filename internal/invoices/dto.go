package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/internal/pricing"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	"github.com/angelmondragon/invoicedesk-backend/pkg/export"
)

type ItemDTO struct {
	ProductID *uuid.UUID      `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// InvoiceDTO is the API representation of a stored invoice.
type InvoiceDTO struct {
	ID            uuid.UUID           `json:"id"`
	Customer      string              `json:"customer"`
	Date          time.Time           `json:"date"`
	Status        enums.InvoiceStatus `json:"status"`
	Items         []ItemDTO           `json:"items"`
	CashPayment   decimal.Decimal     `json:"cashPayment"`
	OnlinePayment decimal.Decimal     `json:"onlinePayment"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	AmountOwed    decimal.Decimal     `json:"amountOwed"`
	Total         decimal.Decimal     `json:"total"`
	CreatedBy     *uuid.UUID          `json:"createdBy,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func NewInvoiceDTO(inv *models.Invoice) *InvoiceDTO {
	items := make([]ItemDTO, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, ItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Quantity.Mul(item.Price).Round(2),
		})
	}
	return &InvoiceDTO{
		ID:            inv.ID,
		Customer:      inv.Customer,
		Date:          inv.InvoiceDate,
		Status:        inv.Status,
		Items:         items,
		CashPayment:   inv.CashPayment,
		OnlinePayment: inv.OnlinePayment,
		AmountPaid:    inv.AmountPaid,
		AmountOwed:    inv.AmountOwed,
		Total:         inv.Total,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// CreateInvoiceInput is the submitted draft. Item names and prices are recomputed from
// the catalogue; only product ids and quantities are trusted.
type CreateInvoiceInput struct {
	Customer      string             `json:"customer" validate:"required,max=200"`
	Date          *time.Time         `json:"date"`
	Items         []pricing.LineItem `json:"items" validate:"required,min=1,dive"`
	CashPayment   decimal.Decimal    `json:"cashPayment"`
	OnlinePayment decimal.Decimal    `json:"onlinePayment"`
	CreatedBy     *uuid.UUID         `json:"-"`
}

// ListInvoicesInput carries the query parameters of the invoice list.
type ListInvoicesInput struct {
	Status string
	Query  string
	Cursor string
	Limit  int
}

type DraftSelectInput struct {
	Items     []pricing.LineItem `json:"items"`
	ProductID uuid.UUID          `json:"productId" validate:"required"`
}

type DraftReplaceInput struct {
	Items     []pricing.LineItem `json:"items"`
	Index     int                `json:"index" validate:"gte=0"`
	ProductID uuid.UUID          `json:"productId" validate:"required"`
}

type DraftQuantityInput struct {
	Items    []pricing.LineItem `json:"items"`
	Index    int                `json:"index" validate:"gte=0"`
	Quantity decimal.Decimal    `json:"quantity"`
}

type DraftRemoveInput struct {
	Items []pricing.LineItem `json:"items"`
	Index int                `json:"index" validate:"gte=0"`
}

type DraftTotalsInput struct {
	Items         []pricing.LineItem `json:"items"`
	CashPayment   decimal.Decimal    `json:"cashPayment"`
	OnlinePayment decimal.Decimal    `json:"onlinePayment"`
}

// DraftDTO is the draft state returned by every draft operation.
type DraftDTO struct {
	Items  []pricing.LineItem `json:"items"`
	Totals pricing.Totals     `json:"totals"`
}

func newDraftDTO(items []pricing.LineItem) DraftDTO {
	if items == nil {
		items = []pricing.LineItem{}
	}
	return DraftDTO{Items: items, Totals: pricing.ComputeTotals(items, decimal.Zero, decimal.Zero)}
}

// Printable maps the invoice onto the document renderer's view.
func (d InvoiceDTO) Printable() export.Invoice {
	lines := make([]export.InvoiceLine, 0, len(d.Items))
	for _, item := range d.Items {
		lines = append(lines, export.InvoiceLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: item.Subtotal,
		})
	}
	return export.Invoice{
		ID:            d.ID.String(),
		Customer:      d.Customer,
		Date:          d.Date,
		Status:        string(d.Status),
		Lines:         lines,
		Total:         d.Total,
		CashPayment:   d.CashPayment,
		OnlinePayment: d.OnlinePayment,
		AmountPaid:    d.AmountPaid,
		AmountOwed:    d.AmountOwed,
		CreatedAt:     d.CreatedAt,
	}
}
