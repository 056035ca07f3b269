package activity

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	"github.com/angelmondragon/invoicedesk-backend/pkg/export"
)

type ActivityDTO struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewActivityDTO(entry models.Activity) ActivityDTO {
	return ActivityDTO{
		ID:        entry.ID,
		User:      entry.Actor,
		Action:    entry.Action,
		Type:      entry.Type.String(),
		CreatedAt: entry.CreatedAt,
	}
}

func ExportRows(entries []ActivityDTO) []export.ActivityRow {
	rows := make([]export.ActivityRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, export.ActivityRow{
			Actor:     e.User,
			Action:    e.Action,
			Type:      e.Type,
			CreatedAt: e.CreatedAt,
		})
	}
	return rows
}
