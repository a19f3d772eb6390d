package port

import (
	"time"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
)

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// OTPEngine generates TOTP secret material and verifies submitted codes.
type OTPEngine interface {
	// GenerateSecret returns a new base32-encoded secret.
	GenerateSecret() (string, error)
	// ProvisioningURI renders an otpauth:// enrollment URI for the secret,
	// labelled with the account identifier.
	ProvisioningURI(secret, accountLabel string) (string, error)
	// Verify reports whether code matches the secret for the current or an
	// adjacent time step. An empty secret never verifies.
	Verify(secret, code string) bool
}

// TokenIssuer mints and validates signed, self-contained session tokens.
// Validate returns domain.ErrInvalidToken or domain.ErrExpiredToken on failure.
type TokenIssuer interface {
	Issue(claims domain.SessionClaims, ttl time.Duration) (token string, expiresAt time.Time, err error)
	Validate(token string) (*domain.SessionClaims, error)
}
