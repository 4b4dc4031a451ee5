package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/folio-storefront/pkg/enums"
)

// Notification is an entry in the admin inbox. EventID ties it to the outbox
// event that produced it so redelivered messages collapse into one row.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID              `gorm:"column:event_id;type:uuid;not null;uniqueIndex" json:"event_id"`
	Kind      enums.NotificationKind `gorm:"column:kind;not null" json:"kind"`
	Title     string                 `gorm:"column:title;not null" json:"title"`
	Message   string                 `gorm:"column:message;not null" json:"message"`
	Link      *string                `gorm:"column:link" json:"link,omitempty"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
