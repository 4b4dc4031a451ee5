package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Project is a portfolio entry shown on the marketing site.
type Project struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Summary     string         `gorm:"column:summary;not null" json:"summary"`
	Description string         `gorm:"column:description;not null" json:"description"`
	Image       string         `gorm:"column:image;not null" json:"image"`
	Link        *string        `gorm:"column:link" json:"link,omitempty"`
	Tags        pq.StringArray `gorm:"column:tags" json:"tags"`
	Featured    bool           `gorm:"column:featured;not null" json:"featured"`
	SortOrder   int            `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
