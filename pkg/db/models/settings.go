package models

import "time"

// SettingsRowID is the primary key of the only settings row.
const SettingsRowID = 1

type Settings struct {
	ID                int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	CompanyName       string    `gorm:"column:company_name;not null"`
	CompanyEmail      string    `gorm:"column:company_email;not null"`
	CompanyPhone      string    `gorm:"column:company_phone;not null"`
	CompanyAddress    string    `gorm:"column:company_address;not null"`
	InvoiceFooterNote string    `gorm:"column:invoice_footer_note;not null"`
	InvoiceCurrency   string    `gorm:"column:invoice_currency;not null"`
	Notifications     bool      `gorm:"column:notifications;not null"`
	Theme             string    `gorm:"column:theme;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string { return "settings" }
