package auth

import "zeto/internal/domain/models"

// TokenVerifier validates bearer tokens and extracts their claims. The
// abstraction keeps the middleware agnostic to the verification mechanism.
type TokenVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed
	// claims. Returns an error if the token is invalid, expired, or has an
	// invalid signature.
	VerifyToken(tokenString string) (*models.UserClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
