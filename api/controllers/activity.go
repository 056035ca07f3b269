package controllers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	"github.com/angelmondragon/invoicedesk-backend/api/validators"
	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/export"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

const (
	activityPageLimit   = 200
	activityExportLimit = 5000
)

func activityInput(r *http.Request, defaultLimit int) (activity.ListInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, activityExportLimit)
	if err != nil {
		return activity.ListInput{}, err
	}
	return activity.ListInput{
		Type:  validators.QueryString(r, "type", 20),
		Query: validators.QueryString(r, "q", 200),
		Limit: limit,
	}, nil
}

func ActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}
		input, err := activityInput(r, activityPageLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func ActivityExportPDF(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}
		input, err := activityInput(r, activityExportLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := export.ActivityPDF(&buf, activity.ExportRows(entries), time.Now().UTC()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render activity pdf"))
			return
		}
		responses.WriteFile(w, "application/pdf", "activity-log.pdf", buf.Bytes())
	}
}
