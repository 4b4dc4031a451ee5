package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Role        enums.AdminRole `json:"role"`
	IsActive    bool            `json:"is_active"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateUserDTO holds the data required to persist a new admin user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Role         enums.AdminRole
	IsActive     *bool
}

func (d CreateUserDTO) ToModel() *models.AdminUser {
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	role := d.Role
	if !role.IsValid() {
		role = enums.AdminRoleEditor
	}
	return &models.AdminUser{
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Role:         role,
		IsActive:     active,
	}
}

func FromModel(u *models.AdminUser) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
