package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All lists every persisted model; used to build schemas for SQLite runs.
func All() []any {
	return []any{
		&Product{},
		&Project{},
		&Order{},
		&AdminUser{},
		&ContactMessage{},
		&OutboxEvent{},
		&OutboxDLQ{},
		&Notification{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (u *AdminUser) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (m *ContactMessage) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
