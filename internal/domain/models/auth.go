package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims represents the JWT claims the backend cares about. The
// identity provider is opaque to this service; only the subject (user id)
// drives ownership checks.
type AuthClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AuthClaims) GetUserID() string {
	return c.Subject
}
