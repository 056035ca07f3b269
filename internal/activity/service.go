package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// Entry is one thing worth recording in the audit log.
type Entry struct {
	Actor  string
	Action string
	Type   enums.ActivityType
}

// Recorder is what mutating services depend on. Recording never fails the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type Service interface {
	Recorder
	List(ctx context.Context, input ListInput) ([]ActivityDTO, error)
}

// ListInput carries the raw query parameters of the activity page.
type ListInput struct {
	Type  string
	Query string
	Limit int
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) {
	typ := entry.Type
	if typ == "" {
		typ = enums.ActivityTypeInfo
	}
	actor := strings.TrimSpace(entry.Actor)
	if actor == "" {
		actor = "system"
	}

	row := &models.Activity{Actor: actor, Action: entry.Action, Type: typ}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"activity_action": entry.Action,
			"error":           err.Error(),
		}), "failed to log activity")
	}
}

func (s *service) List(ctx context.Context, input ListInput) ([]ActivityDTO, error) {
	typ, err := enums.ParseActivityType(strings.TrimSpace(strings.ToLower(input.Type)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if strings.TrimSpace(input.Type) == "" {
		typ = ""
	}

	entries, err := s.repo.List(ctx, Filter{Type: typ, Query: input.Query, Limit: input.Limit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity")
	}

	out := make([]ActivityDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewActivityDTO(entry))
	}
	return out, nil
}

// NopRecorder drops every entry.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) {}
