package claims

// Role is the storefront role carried in the roles claim.
type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleRestaurantAdmin Role = "RESTAURANT_ADMIN"
	RoleSuperAdmin      Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurantAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin is true for both admin roles.
func (r Role) IsAdmin() bool {
	return r == RoleRestaurantAdmin || r == RoleSuperAdmin
}

// SessionUser is the signed in user as seen by the client.
type SessionUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
