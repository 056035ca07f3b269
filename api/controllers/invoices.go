package controllers

import (
	"bytes"
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/api/middleware"
	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	invoice "github.com/angelmondragon/invoicedesk-backend/internal/invoices"
	"github.com/angelmondragon/invoicedesk-backend/internal/settings"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/export"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/pagination"
)

const invoiceNotFound = "Invoice not found"

func invoiceServiceMissing() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable")
}

func listInvoicesInput(r *http.Request) (invoice.ListInvoicesInput, error) {
	// no limit and no cursor lists every invoice
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return invoice.ListInvoicesInput{}, err
	}
	return invoice.ListInvoicesInput{
		Status: validators.QueryString(r, "status", 20),
		Query:  validators.QueryString(r, "q", 200),
		Cursor: validators.QueryString(r, "cursor", 256),
		Limit:  limit,
	}, nil
}

func InvoiceList(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, invoiceServiceMissing())
			return
		}
		input, err := listInvoicesInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func InvoiceGet(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, invoiceServiceMissing())
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceId", invoiceNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

// InvoicePDF renders one invoice on the saved company letterhead.
func InvoicePDF(svc invoice.Service, settingsSvc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || settingsSvc == nil {
			responses.WriteError(r.Context(), logg, w, invoiceServiceMissing())
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceId", invoiceNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cfg, err := settingsSvc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := export.InvoicePDF(&buf, inv.Printable(), cfg.Letterhead()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice pdf"))
			return
		}
		responses.WriteFile(w, "application/pdf", "invoice-"+shortID(inv.ID)+".pdf", buf.Bytes())
	}
}

// InvoiceExportCSV writes every invoice matching the list filters.
func InvoiceExportCSV(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, invoiceServiceMissing())
			return
		}
		input, err := listInvoicesInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		all, err := svc.Export(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows := make([]export.Invoice, 0, len(all))
		for _, inv := range all {
			rows = append(rows, inv.Printable())
		}
		var buf bytes.Buffer
		if err := export.InvoicesCSV(&buf, rows); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice csv"))
			return
		}
		responses.WriteFile(w, "text/csv; charset=utf-8", "invoices.csv", buf.Bytes())
	}
}

func InvoiceCreate(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, invoiceServiceMissing())
			return
		}
		var body invoice.CreateInvoiceInput
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if p := middleware.PrincipalFromContext(r.Context()); p != nil && p.UserID != uuid.Nil {
			createdBy := p.UserID
			body.CreatedBy = &createdBy
		}

		created, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func InvoiceDelete(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, invoiceServiceMissing())
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceId", invoiceNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// draftHandler decodes a draft payload and answers with whatever op returns. Draft
// operations never touch storage; they only read the catalogue.
func draftHandler[T any, R any](logg *logger.Logger, op func(context.Context, T) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := op(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func unavailable(logg *logger.Logger, err error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, err)
	}
}

func DraftSelect(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, invoiceServiceMissing())
	}
	return draftHandler(logg, svc.SelectProduct)
}

func DraftReplace(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, invoiceServiceMissing())
	}
	return draftHandler(logg, svc.ReplaceProduct)
}

func DraftQuantity(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, invoiceServiceMissing())
	}
	return draftHandler(logg, svc.UpdateQuantity)
}

func DraftRemove(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, invoiceServiceMissing())
	}
	return draftHandler(logg, svc.RemoveItem)
}

func DraftTotals(svc invoice.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg, invoiceServiceMissing())
	}
	return draftHandler(logg, svc.Totals)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
