package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT claims structure issued by the identity provider.
// Identity itself is an external collaborator; the backend only needs the
// subject and an email for display.
type UserClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"` // "authenticated" or "anon"
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *UserClaims) GetUserID() string {
	return c.Subject
}
