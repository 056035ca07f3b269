package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalogue entry. Quantity is the stock on hand.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:text;primaryKey"`
	Name            string              `gorm:"column:name;not null"`
	ImageURL        *string             `gorm:"column:image_url"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(14,2);not null"`
	DiscountedPrice decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(14,2)"`
	Quantity        decimal.Decimal     `gorm:"column:quantity;type:numeric(14,3);not null"`
	Category        string              `gorm:"column:category;not null;default:''"`
	BundleWithID    *uuid.UUID          `gorm:"column:bundle_with_id;type:text"`
	AllowFractional bool                `gorm:"column:allow_fractional;not null;default:false"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
