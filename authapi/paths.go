package authapi

import "strings"

// Endpoint paths of the auth API
const (
	PathLoginCustomer    = "/auth/login/customer"
	PathLoginAdmin       = "/auth/login/admin"
	PathRefresh          = "/auth/refresh"
	PathLogout           = "/auth/logout"
	PathRegisterCustomer = "/public/customers"
)

var publicPaths = []string{
	PathLoginCustomer,
	PathLoginAdmin,
	PathRefresh,
	PathRegisterCustomer,
}

// IsPublic reports whether path is an unauthenticated endpoint. Public requests never carry
// a bearer token and a 401 from them never starts a refresh. Paths are matched by suffix so
// an API mounted under a prefix (e.g. /api/v1) still matches.
func IsPublic(path string) bool {
	for _, p := range publicPaths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

// IsLogout reports whether path is the logout endpoint. A 401 from logout is final.
func IsLogout(path string) bool {
	return strings.HasSuffix(path, PathLogout)
}
