package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/internal/repo"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

type Service interface {
	// Get returns nil when nothing has been saved yet.
	Get(ctx context.Context) (*SettingsDTO, error)
	Upsert(ctx context.Context, actor string, input UpsertInput) (*SettingsDTO, error)
}

type service struct {
	repo     Repository
	activity activity.Recorder
}

func NewService(repo Repository, recorder activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &service{repo: repo, activity: recorder}, nil
}

func (s *service) Get(ctx context.Context) (*SettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return NewSettingsDTO(row), nil
}

func (s *service) Upsert(ctx context.Context, actor string, input UpsertInput) (*SettingsDTO, error) {
	row, err := s.repo.Get(ctx)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		row = defaults()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}

	applyUpsert(row, input)

	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
	}

	s.activity.Record(ctx, activity.Entry{Actor: actor, Action: "Updated settings"})
	return NewSettingsDTO(row), nil
}

func defaults() *models.Settings {
	return &models.Settings{
		ID:              models.SettingsRowID,
		InvoiceCurrency: DefaultCurrency,
		Notifications:   true,
		Theme:           DefaultTheme,
	}
}

func applyUpsert(row *models.Settings, input UpsertInput) {
	if c := input.Company; c != nil {
		setTrimmed(&row.CompanyName, c.Name)
		setTrimmed(&row.CompanyEmail, c.Email)
		setTrimmed(&row.CompanyPhone, c.Phone)
		setTrimmed(&row.CompanyAddress, c.Address)
	}
	if inv := input.Invoice; inv != nil {
		setTrimmed(&row.InvoiceFooterNote, inv.FooterNote)
		if inv.Currency != nil {
			row.InvoiceCurrency = strings.ToUpper(strings.TrimSpace(*inv.Currency))
		}
	}
	if input.Notifications != nil {
		row.Notifications = *input.Notifications
	}
	if input.Theme != nil {
		row.Theme = *input.Theme
	}
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
