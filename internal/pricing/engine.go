package pricing

import (
	"github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one row of an invoice draft.
type LineItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Subtotal is quantity times the unit price charged, rounded to minor units.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.Price).Round(2)
}

// Price returns the unit price for qty: the discounted price from two units up, when one exists.
func Price(p Product, qty decimal.Decimal) decimal.Decimal {
	if p.DiscountedPrice != nil && qty.GreaterThanOrEqual(two) {
		return *p.DiscountedPrice
	}
	return p.Price
}

// SelectProduct appends productID at quantity one and auto-adds its bundle partner
// when the partner is not already on the draft.
func SelectProduct(items []LineItem, productID uuid.UUID, catalog Catalog) ([]LineItem, error) {
	p, err := lookup(catalog, productID)
	if err != nil {
		return items, err
	}
	out := append(clone(items), newLine(p))
	return appendBundle(out, p, catalog), nil
}

// ReplaceProduct swaps the product on row index, resetting it to quantity one.
func ReplaceProduct(items []LineItem, index int, productID uuid.UUID, catalog Catalog) ([]LineItem, error) {
	if index < 0 || index >= len(items) {
		return items, errors.Newf(errors.CodeValidation, "line item %d does not exist", index)
	}
	p, err := lookup(catalog, productID)
	if err != nil {
		return items, err
	}
	out := clone(items)
	out[index] = newLine(p)
	return appendBundle(out, p, catalog), nil
}

// UpdateQuantity re-prices item at qty. A rejected update returns item unchanged.
func UpdateQuantity(item LineItem, qty decimal.Decimal, catalog Catalog) (LineItem, error) {
	p, err := lookup(catalog, item.ProductID)
	if err != nil {
		return item, err
	}
	if err := checkQuantity(p, qty); err != nil {
		return item, err
	}
	updated := item
	updated.Quantity = qty
	updated.Price = Price(p, qty)
	return updated, nil
}

// UpdateQuantityAt applies UpdateQuantity to row index of a draft.
func UpdateQuantityAt(items []LineItem, index int, qty decimal.Decimal, catalog Catalog) ([]LineItem, error) {
	if index < 0 || index >= len(items) {
		return items, errors.Newf(errors.CodeValidation, "line item %d does not exist", index)
	}
	updated, err := UpdateQuantity(items[index], qty, catalog)
	if err != nil {
		return items, err
	}
	out := clone(items)
	out[index] = updated
	return out, nil
}

// RemoveAt drops row index from the draft.
func RemoveAt(items []LineItem, index int) ([]LineItem, error) {
	if index < 0 || index >= len(items) {
		return items, errors.Newf(errors.CodeValidation, "line item %d does not exist", index)
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...), nil
}

// Reprice rebuilds submitted rows from the catalogue: names and unit prices come from the
// product, quantities are checked per row and summed per product against stock.
func Reprice(items []LineItem, catalog Catalog) ([]LineItem, error) {
	out := make([]LineItem, 0, len(items))
	sold := make(map[uuid.UUID]decimal.Decimal, len(items))
	for i, item := range items {
		p, err := lookup(catalog, item.ProductID)
		if err != nil {
			return nil, err
		}
		if err := checkQuantity(p, item.Quantity); err != nil {
			return nil, errors.Newf(errors.CodeValidation, "item %d (%s): %s", i, p.Name, errors.As(err).Message())
		}
		total := sold[p.ID].Add(item.Quantity)
		if total.GreaterThan(p.Stock) {
			return nil, errors.Newf(errors.CodeValidation, "%s: quantity %s exceeds stock %s", p.Name, total, p.Stock)
		}
		sold[p.ID] = total
		out = append(out, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			Price:     Price(p, item.Quantity),
		})
	}
	return out, nil
}

func checkQuantity(p Product, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return errors.New(errors.CodeValidation, "quantity must be greater than zero")
	}
	if !p.AllowFractional && !qty.IsInteger() {
		return errors.New(errors.CodeValidation, "quantity must be a whole number")
	}
	if qty.GreaterThan(p.Stock) {
		return errors.New(errors.CodeValidation, "quantity exceeds stock")
	}
	return nil
}

func lookup(catalog Catalog, id uuid.UUID) (Product, error) {
	if catalog == nil {
		return Product{}, errors.New(errors.CodeInternal, "catalog unavailable")
	}
	p, ok := catalog.Product(id)
	if !ok {
		return Product{}, errors.Newf(errors.CodeNotFound, "product %s not found", id)
	}
	return p, nil
}

func newLine(p Product) LineItem {
	return LineItem{ProductID: p.ID, Name: p.Name, Quantity: one, Price: Price(p, one)}
}

func appendBundle(items []LineItem, p Product, catalog Catalog) []LineItem {
	if p.BundleWith == nil || *p.BundleWith == p.ID || contains(items, *p.BundleWith) {
		return items
	}
	partner, ok := catalog.Product(*p.BundleWith)
	if !ok {
		return items
	}
	return append(items, newLine(partner))
}

func contains(items []LineItem, id uuid.UUID) bool {
	for _, item := range items {
		if item.ProductID == id {
			return true
		}
	}
	return false
}

func clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+2)
	copy(out, items)
	return out
}
