package port

import (
	"context"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
//
// Email lookups compare case-insensitively. Create returns
// repository.ErrDuplicate when the email is already taken; the update
// methods return repository.ErrNotFound when no row matches. Every update
// is a single atomic statement scoped to one account row.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// EnableTwoFactor stores a freshly generated secret and provisioning URI
	// and switches the account to the authenticator method.
	EnableTwoFactor(ctx context.Context, id, secret, provisioningURI string) error
	// DisableTwoFactor wipes the secret, provisioning URI, and auth method
	// and clears the enabled flag in one statement.
	DisableTwoFactor(ctx context.Context, id string) error
	UpdateAuthMethod(ctx context.Context, id string, method domain.AuthMethod) error
	// MarkConfigured records a completed enrollment verification and sets the
	// per-session otp_verified flag to the supplied value.
	MarkConfigured(ctx context.Context, id string, otpVerified bool) error
	// SetConfigured flags enrollment as complete without touching otp_verified.
	SetConfigured(ctx context.Context, id string) error
	SetOTPVerified(ctx context.Context, id string, verified bool) error
}
