package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// Invoice is a finalized sale. Items are ordered by Position.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:text;primaryKey"`
	Customer      string              `gorm:"column:customer;not null"`
	InvoiceDate   time.Time           `gorm:"column:invoice_date;not null"`
	Status        enums.InvoiceStatus `gorm:"column:status;not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(14,2);not null"`
	CashPayment   decimal.Decimal     `gorm:"column:cash_payment;type:numeric(14,2);not null"`
	OnlinePayment decimal.Decimal     `gorm:"column:online_payment;type:numeric(14,2);not null"`
	AmountPaid    decimal.Decimal     `gorm:"column:amount_paid;type:numeric(14,2);not null"`
	AmountOwed    decimal.Decimal     `gorm:"column:amount_owed;type:numeric(14,2);not null"`
	CreatedBy     *uuid.UUID          `gorm:"column:created_by;type:text"`
	Items         []InvoiceItem       `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is a snapshot of a priced line at finalization time.
type InvoiceItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:text;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"column:invoice_id;type:text;not null"`
	Position  int             `gorm:"column:position;not null"`
	ProductID *uuid.UUID      `gorm:"column:product_id;type:text"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

func (i *InvoiceItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
