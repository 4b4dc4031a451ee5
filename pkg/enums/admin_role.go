package enums

import "fmt"

// AdminRole scopes what an authenticated dashboard user may do.
type AdminRole string

const (
	AdminRoleOwner  AdminRole = "owner"
	AdminRoleEditor AdminRole = "editor"
)

var validAdminRoles = []AdminRole{
	AdminRoleOwner,
	AdminRoleEditor,
}

func (r AdminRole) String() string {
	return string(r)
}

func (r AdminRole) IsValid() bool {
	for _, candidate := range validAdminRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseAdminRole(value string) (AdminRole, error) {
	for _, candidate := range validAdminRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin role %q", value)
}
