package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Product is the slice of a catalogue entry the engine prices against.
type Product struct {
	ID              uuid.UUID
	Name            string
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
	Stock           decimal.Decimal
	BundleWith      *uuid.UUID
	AllowFractional bool
}

// Catalog resolves products by id.
type Catalog interface {
	Product(id uuid.UUID) (Product, bool)
}

// StaticCatalog is an in-memory Catalog built from a product snapshot.
type StaticCatalog map[uuid.UUID]Product

func NewCatalog(products ...Product) StaticCatalog {
	c := make(StaticCatalog, len(products))
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}

func (c StaticCatalog) Product(id uuid.UUID) (Product, bool) {
	p, ok := c[id]
	return p, ok
}
