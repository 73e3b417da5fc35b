// Package auth holds the role model for the identity gate. Token issuance
// lives outside this service; the core trusts the claims handed to it.
package auth

// Role is the coarse capability level attached to every authenticated call.
type Role string

const (
	// RoleUser is a regular shopper.
	RoleUser Role = "user"
	// RoleAdmin may manage the catalog, coupons, and all orders.
	RoleAdmin Role = "admin"
)

// Claims is the identity extracted from a verified access token.
type Claims struct {
	UserID string
	Role   Role
}

// Authorize reports whether role is one of the allowed roles.
func Authorize(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
