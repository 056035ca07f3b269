package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
)

// ProductDTO is the dashboard representation of a product.
type ProductDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	ImageURL        *string          `json:"imageUrl,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Category        string           `json:"category"`
	BundleWith      *uuid.UUID       `json:"bundleWith,omitempty"`
	AllowFractional bool             `json:"allowFractional"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// BundleDTO is the populated partner shown on the storefront.
type BundleDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	ImageURL        *string          `json:"imageUrl,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
}

// CatalogProductDTO is a storefront entry with its bundle partner inlined.
type CatalogProductDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	ImageURL        *string          `json:"imageUrl,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Category        string           `json:"category"`
	AllowFractional bool             `json:"allowFractional"`
	InStock         bool             `json:"inStock"`
	BundleWith      *BundleDTO       `json:"bundleWith,omitempty"`
}

func discountedPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:              p.ID,
		Name:            p.Name,
		ImageURL:        p.ImageURL,
		Price:           p.Price,
		DiscountedPrice: discountedPtr(p.DiscountedPrice),
		Quantity:        p.Quantity,
		Category:        p.Category,
		BundleWith:      p.BundleWithID,
		AllowFractional: p.AllowFractional,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ProductInput is the create payload.
type ProductInput struct {
	Name            string           `json:"name" validate:"required,max=200"`
	ImageURL        *string          `json:"imageUrl" validate:"omitempty,max=2048"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Category        string           `json:"category" validate:"max=100"`
	BundleWith      *uuid.UUID       `json:"bundleWith"`
	AllowFractional bool             `json:"allowFractional"`
}

// UpdateProductInput holds optional mutation values; nil leaves a field unchanged.
// ClearDiscount and ClearBundle remove the optional references.
type UpdateProductInput struct {
	Name            *string          `json:"name" validate:"omitempty,max=200"`
	ImageURL        *string          `json:"imageUrl" validate:"omitempty,max=2048"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	ClearDiscount   bool             `json:"clearDiscount"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Category        *string          `json:"category" validate:"omitempty,max=100"`
	BundleWith      *uuid.UUID       `json:"bundleWith"`
	ClearBundle     bool             `json:"clearBundle"`
	AllowFractional *bool            `json:"allowFractional"`
}

// ListProductsInput carries the query parameters of the product list.
type ListProductsInput struct {
	Category string
	Query    string
}
