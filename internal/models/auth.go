package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the verified identity forwarded by the auth gate.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	CenterID string `json:"center_id,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claim carries one of roles.
func (c *Claims) HasRole(roles ...Role) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
