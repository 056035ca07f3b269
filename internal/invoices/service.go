package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/pricing"
	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/metrics"
	"github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
)

// CatalogSource snapshots products for pricing; the product service satisfies it.
type CatalogSource interface {
	PricingCatalog(ctx context.Context) (pricing.Catalog, error)
}

// Service exposes invoice creation, lookup and the draft editing helpers.
type Service interface {
	Create(ctx context.Context, actor string, input CreateInvoiceInput) (*InvoiceDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error)
	List(ctx context.Context, input ListInvoicesInput) (pagination.Page[InvoiceDTO], error)
	// Export returns every invoice matching the filters, newest first.
	Export(ctx context.Context, input ListInvoicesInput) ([]InvoiceDTO, error)
	Delete(ctx context.Context, actor string, id uuid.UUID) error

	SelectProduct(ctx context.Context, input DraftSelectInput) (DraftDTO, error)
	ReplaceProduct(ctx context.Context, input DraftReplaceInput) (DraftDTO, error)
	UpdateQuantity(ctx context.Context, input DraftQuantityInput) (DraftDTO, error)
	RemoveItem(ctx context.Context, input DraftRemoveInput) (DraftDTO, error)
	Totals(ctx context.Context, input DraftTotalsInput) (pricing.Totals, error)
}

// ServiceParams groups the collaborators of the invoice service.
type ServiceParams struct {
	Repo     Repository
	Catalog  CatalogSource
	Activity activity.Recorder
	Metrics  *metrics.InvoiceMetrics
	Now      func() time.Time
}

type service struct {
	repo     Repository
	catalog  CatalogSource
	activity activity.Recorder
	metrics  *metrics.InvoiceMetrics
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Activity == nil {
		params.Activity = activity.NopRecorder{}
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		catalog:  params.Catalog,
		activity: params.Activity,
		metrics:  params.Metrics,
		now:      params.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor string, input CreateInvoiceInput) (*InvoiceDTO, error) {
	customer := strings.TrimSpace(input.Customer)
	if customer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is required")
	}

	catalog, err := s.catalog.PricingCatalog(ctx)
	if err != nil {
		return nil, err
	}
	items, err := pricing.Reprice(input.Items, catalog)
	if err != nil {
		return nil, asValidation(err)
	}
	totals, err := pricing.Finalize(items, input.CashPayment, input.OnlinePayment)
	if err != nil {
		return nil, err
	}

	date := s.now().UTC()
	if input.Date != nil && !input.Date.IsZero() {
		date = input.Date.UTC()
	}

	inv := &models.Invoice{
		ID:            uuid.New(),
		Customer:      customer,
		InvoiceDate:   date,
		Status:        totals.Status,
		Total:         totals.Total,
		CashPayment:   input.CashPayment,
		OnlinePayment: input.OnlinePayment,
		AmountPaid:    totals.AmountPaid,
		AmountOwed:    totals.AmountOwed,
		CreatedBy:     input.CreatedBy,
		Items:         make([]models.InvoiceItem, 0, len(items)),
	}
	for i, item := range items {
		productID := item.ProductID
		inv.Items = append(inv.Items, models.InvoiceItem{
			InvoiceID: inv.ID,
			Position:  i,
			ProductID: &productID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert invoice")
	}

	s.metrics.IncCreated(string(inv.Status))
	s.activity.Record(ctx, activity.Entry{
		Actor:  actor,
		Action: fmt.Sprintf("Created invoice for %s (%s)", inv.Customer, inv.Total.StringFixed(2)),
		Type:   enums.ActivityTypeSuccess,
	})
	return NewInvoiceDTO(inv), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return NewInvoiceDTO(inv), nil
}

// List returns invoices newest-first. Without a limit or cursor every invoice is
// returned; otherwise one keyset page.
func (s *service) List(ctx context.Context, input ListInvoicesInput) (pagination.Page[InvoiceDTO], error) {
	filter, err := listFilter(input)
	if err != nil {
		return pagination.Page[InvoiceDTO]{}, err
	}
	paged := input.Limit > 0 || filter.After != nil
	if paged {
		filter.Limit = pagination.LimitWithBuffer(input.Limit)
	}

	dtos, err := s.load(ctx, filter)
	if err != nil {
		return pagination.Page[InvoiceDTO]{}, err
	}
	if !paged {
		return pagination.Page[InvoiceDTO]{Items: dtos}, nil
	}
	return pagination.Trim(dtos, input.Limit, func(d InvoiceDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) Export(ctx context.Context, input ListInvoicesInput) ([]InvoiceDTO, error) {
	filter, err := listFilter(input)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, filter)
}

func (s *service) load(ctx context.Context, filter ListFilter) ([]InvoiceDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	dtos := make([]InvoiceDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewInvoiceDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Invoice not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invoice")
	}

	s.activity.Record(ctx, activity.Entry{
		Actor:  actor,
		Action: fmt.Sprintf("Deleted invoice for %s", inv.Customer),
		Type:   enums.ActivityTypeWarning,
	})
	return nil
}

func (s *service) SelectProduct(ctx context.Context, input DraftSelectInput) (DraftDTO, error) {
	catalog, err := s.catalog.PricingCatalog(ctx)
	if err != nil {
		return DraftDTO{}, err
	}
	items, err := pricing.SelectProduct(input.Items, input.ProductID, catalog)
	if err != nil {
		return DraftDTO{}, err
	}
	return newDraftDTO(items), nil
}

func (s *service) ReplaceProduct(ctx context.Context, input DraftReplaceInput) (DraftDTO, error) {
	catalog, err := s.catalog.PricingCatalog(ctx)
	if err != nil {
		return DraftDTO{}, err
	}
	items, err := pricing.ReplaceProduct(input.Items, input.Index, input.ProductID, catalog)
	if err != nil {
		return DraftDTO{}, err
	}
	return newDraftDTO(items), nil
}

func (s *service) UpdateQuantity(ctx context.Context, input DraftQuantityInput) (DraftDTO, error) {
	catalog, err := s.catalog.PricingCatalog(ctx)
	if err != nil {
		return DraftDTO{}, err
	}
	items, err := pricing.UpdateQuantityAt(input.Items, input.Index, input.Quantity, catalog)
	if err != nil {
		return DraftDTO{}, asValidation(err)
	}
	return newDraftDTO(items), nil
}

func (s *service) RemoveItem(_ context.Context, input DraftRemoveInput) (DraftDTO, error) {
	items, err := pricing.RemoveAt(input.Items, input.Index)
	if err != nil {
		return DraftDTO{}, err
	}
	return newDraftDTO(items), nil
}

func (s *service) Totals(_ context.Context, input DraftTotalsInput) (pricing.Totals, error) {
	if input.CashPayment.IsNegative() || input.OnlinePayment.IsNegative() {
		return pricing.Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "payments cannot be negative")
	}
	return pricing.ComputeTotals(input.Items, input.CashPayment, input.OnlinePayment), nil
}

func listFilter(input ListInvoicesInput) (ListFilter, error) {
	var filter ListFilter
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := enums.ParseInvoiceStatus(strings.ToLower(raw))
		if err != nil {
			return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		filter.Status = status
	}
	filter.Query = strings.TrimSpace(input.Query)

	after, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	filter.After = after
	return filter, nil
}

// asValidation reports a product missing from a submitted draft as bad input.
func asValidation(err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		return pkgerrors.New(pkgerrors.CodeValidation, typed.Message())
	}
	return err
}
