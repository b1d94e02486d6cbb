package domain

import "strings"

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "Admin"
)

// ParseRole is case-insensitive. Anything that is not an admin is a customer.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleCustomer
}

// Identity is the authenticated caller as resolved by the transport layer.
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Owns reports whether the identity is the given user.
func (i Identity) Owns(userID int64) bool {
	return i.UserID == userID
}
