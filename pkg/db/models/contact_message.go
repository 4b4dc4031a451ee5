package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactMessage is a sanitized submission of the public contact form.
type ContactMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Email     string    `gorm:"column:email;not null" json:"email"`
	Subject   string    `gorm:"column:subject;not null" json:"subject"`
	Body      string    `gorm:"column:body;not null" json:"body"`
	RemoteIP  string    `gorm:"column:remote_ip;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
