package settings

import (
	"time"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/export"
)

const (
	DefaultCurrency = "NGN"
	DefaultTheme    = "system"
)

type CompanyDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type InvoiceDTO struct {
	FooterNote string `json:"footerNote"`
	Currency   string `json:"currency"`
}

// SettingsDTO mirrors the nested document the dashboard edits.
type SettingsDTO struct {
	Company       CompanyDTO `json:"company"`
	Invoice       InvoiceDTO `json:"invoice"`
	Notifications bool       `json:"notifications"`
	Theme         string     `json:"theme"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func NewSettingsDTO(row *models.Settings) *SettingsDTO {
	return &SettingsDTO{
		Company: CompanyDTO{
			Name:    row.CompanyName,
			Email:   row.CompanyEmail,
			Phone:   row.CompanyPhone,
			Address: row.CompanyAddress,
		},
		Invoice: InvoiceDTO{
			FooterNote: row.InvoiceFooterNote,
			Currency:   row.InvoiceCurrency,
		},
		Notifications: row.Notifications,
		Theme:         row.Theme,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// Letterhead is the company block printed on invoices. A nil receiver yields the
// defaults used before settings are first saved.
func (s *SettingsDTO) Letterhead() export.Company {
	if s == nil {
		return export.Company{Currency: DefaultCurrency}
	}
	return export.Company{
		Name:       s.Company.Name,
		Email:      s.Company.Email,
		Phone:      s.Company.Phone,
		Address:    s.Company.Address,
		FooterNote: s.Invoice.FooterNote,
		Currency:   s.Invoice.Currency,
	}
}

// CompanyInput carries optional company fields; nil leaves the stored value.
type CompanyInput struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type InvoiceInput struct {
	FooterNote *string `json:"footerNote" validate:"omitempty,max=1000"`
	Currency   *string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// UpsertInput merges onto the stored document, or onto the defaults when none exists.
type UpsertInput struct {
	Company       *CompanyInput `json:"company" validate:"omitempty"`
	Invoice       *InvoiceInput `json:"invoice" validate:"omitempty"`
	Notifications *bool         `json:"notifications"`
	Theme         *string       `json:"theme" validate:"omitempty,oneof=light dark system"`
}
