package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/pricing"
	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/storage"
)

// Service exposes catalogue management operations.
type Service interface {
	List(ctx context.Context, input ListProductsInput) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Catalog(ctx context.Context) ([]CatalogProductDTO, error)
	Create(ctx context.Context, actor string, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor string, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor string, id uuid.UUID) error
	// PricingCatalog snapshots the catalogue for the pricing engine.
	PricingCatalog(ctx context.Context) (pricing.Catalog, error)
}

type service struct {
	repo       Repository
	activity   activity.Recorder
	imageBases []string
}

// Option configures optional service behaviour.
type Option func(*service)

// WithImageBase restricts product image URLs to objects under base, the prefix of the
// URLs the upload backend returns. It may be given more than once.
func WithImageBase(base string) Option {
	return func(s *service) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			s.imageBases = append(s.imageBases, base)
		}
	}
}

// NewService constructs a product service instance.
func NewService(repo Repository, recorder activity.Recorder, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	s := &service{repo: repo, activity: recorder}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, ListFilter{
		Category: strings.TrimSpace(input.Category),
		Query:    input.Query,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(p), nil
}

// Catalog lists every product with its bundle partner populated.
func (s *service) Catalog(ctx context.Context) ([]CatalogProductDTO, error) {
	products, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]CatalogProductDTO, 0, len(products))
	for _, p := range products {
		entry := CatalogProductDTO{
			ID:              p.ID,
			Name:            p.Name,
			ImageURL:        p.ImageURL,
			Price:           p.Price,
			DiscountedPrice: discountedPtr(p.DiscountedPrice),
			Quantity:        p.Quantity,
			Category:        p.Category,
			AllowFractional: p.AllowFractional,
			InStock:         p.Quantity.IsPositive(),
		}
		if p.BundleWithID != nil {
			if partner, ok := byID[*p.BundleWithID]; ok {
				entry.BundleWith = &BundleDTO{
					ID:              partner.ID,
					Name:            partner.Name,
					ImageURL:        partner.ImageURL,
					Price:           partner.Price,
					DiscountedPrice: discountedPtr(partner.DiscountedPrice),
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, actor string, input ProductInput) (*ProductDTO, error) {
	if err := s.checkImageURL(input.ImageURL); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:            strings.TrimSpace(input.Name),
		ImageURL:        trimmedOrNil(input.ImageURL),
		Price:           input.Price,
		Quantity:        input.Quantity,
		Category:        strings.TrimSpace(input.Category),
		BundleWithID:    input.BundleWith,
		AllowFractional: input.AllowFractional,
	}
	if input.DiscountedPrice != nil {
		p.DiscountedPrice = decimal.NewNullDecimal(*input.DiscountedPrice)
	}
	// assigned up front so the self-bundle check sees the real id
	p.ID = uuid.New()

	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	s.activity.Record(ctx, activity.Entry{Actor: actor, Action: fmt.Sprintf("Created product %s", p.Name), Type: enums.ActivityTypeSuccess})
	return NewProductDTO(p), nil
}

func (s *service) Update(ctx context.Context, actor string, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := s.checkImageURL(input.ImageURL); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdateToProduct(p, input)
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	s.activity.Record(ctx, activity.Entry{Actor: actor, Action: fmt.Sprintf("Updated product %s", p.Name)})
	return NewProductDTO(p), nil
}

func (s *service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.activity.Record(ctx, activity.Entry{Actor: actor, Action: fmt.Sprintf("Deleted product %s", p.Name), Type: enums.ActivityTypeWarning})
	return nil
}

func (s *service) PricingCatalog(ctx context.Context) (pricing.Catalog, error) {
	products, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalogue")
	}
	entries := make([]pricing.Product, 0, len(products))
	for _, p := range products {
		entries = append(entries, ToPricing(p))
	}
	return pricing.NewCatalog(entries...), nil
}

// ToPricing projects a stored product onto the pricing engine's view of it.
func ToPricing(p models.Product) pricing.Product {
	return pricing.Product{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		DiscountedPrice: discountedPtr(p.DiscountedPrice),
		Stock:           p.Quantity,
		BundleWith:      p.BundleWithID,
		AllowFractional: p.AllowFractional,
	}
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return p, nil
}

func (s *service) validate(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.BundleWithID == nil {
		return nil
	}
	if _, err := s.repo.FindByID(ctx, *p.BundleWithID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "bundle partner does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bundle partner")
	}
	return nil
}

// checkImageURL accepts an empty value or a URL under one of the configured upload
// bases. With no bases configured any value is stored.
func (s *service) checkImageURL(raw *string) error {
	value := trimmedOrNil(raw)
	if value == nil || len(s.imageBases) == 0 {
		return nil
	}
	for _, base := range s.imageBases {
		rest, ok := strings.CutPrefix(*value, base+"/")
		if !ok || rest == "" {
			continue
		}
		if _, err := storage.CleanKey(rest); err == nil {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "image url must come from an upload").
		WithDetails(map[string]any{"field": "imageUrl"})
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Price.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	case p.Quantity.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	case p.BundleWithID != nil && *p.BundleWithID == p.ID:
		return pkgerrors.New(pkgerrors.CodeValidation, "a product cannot be bundled with itself")
	}
	if p.DiscountedPrice.Valid {
		d := p.DiscountedPrice.Decimal
		if d.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discounted price cannot be negative")
		}
		if d.GreaterThan(p.Price) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discounted price cannot exceed price")
		}
	}
	return nil
}

func applyUpdateToProduct(p *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.ImageURL != nil {
		p.ImageURL = trimmedOrNil(input.ImageURL)
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	switch {
	case input.ClearDiscount:
		p.DiscountedPrice = decimal.NullDecimal{}
	case input.DiscountedPrice != nil:
		p.DiscountedPrice = decimal.NewNullDecimal(*input.DiscountedPrice)
	}
	if input.Quantity != nil {
		p.Quantity = *input.Quantity
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}
	switch {
	case input.ClearBundle:
		p.BundleWithID = nil
	case input.BundleWith != nil:
		partner := *input.BundleWith
		p.BundleWithID = &partner
	}
	if input.AllowFractional != nil {
		p.AllowFractional = *input.AllowFractional
	}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
