package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

// Activity is one audit log line.
type Activity struct {
	ID        uuid.UUID          `gorm:"column:id;type:text;primaryKey"`
	Actor     string             `gorm:"column:actor;not null"`
	Action    string             `gorm:"column:action;not null"`
	Type      enums.ActivityType `gorm:"column:type;not null;default:info"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Activity) TableName() string { return "activities" }

func (a *Activity) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
