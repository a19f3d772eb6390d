package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
	"github.com/TobiLight/simple-2fa/internal/core/port"
	"github.com/TobiLight/simple-2fa/internal/repository"
)

// TwoFactorService manages the 2FA lifecycle of an account: enrollment,
// method changes, session verification, and teardown.
type TwoFactorService struct {
	accounts port.AccountRepository
	otp      port.OTPEngine
	log      *zap.Logger
}

// NewTwoFactorService constructs a TwoFactorService instance.
func NewTwoFactorService(accounts port.AccountRepository, otp port.OTPEngine, log *zap.Logger) *TwoFactorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TwoFactorService{accounts: accounts, otp: otp, log: log}
}

// Enable turns 2FA on for the account and rotates its secret. A fresh
// secret is generated on every call so that re-enabling never reuses
// material from a previous enrollment.
func (s *TwoFactorService) Enable(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	secret, err := s.otp.GenerateSecret()
	if err != nil {
		return domain.Account{}, fmt.Errorf("generate otp secret: %w", err)
	}
	uri, err := s.otp.ProvisioningURI(secret, account.Email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("build provisioning uri: %w", err)
	}

	if err := s.accounts.EnableTwoFactor(ctx, account.ID, secret, uri); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("enable two-factor: %w", err)
	}

	account.TwoFactorEnabled = true
	account.TwoFactorConfigured = false
	account.OTPVerified = false
	account.OTPSecret = &secret
	account.OTPProvisioningURI = &uri

	s.log.Info("two-factor enabled", zap.String("account_id", account.ID))

	return account.Sanitized(), nil
}

// Disable turns 2FA off and wipes all enrollment state, including the
// stored secret. The target must be the authenticated principal.
func (s *TwoFactorService) Disable(ctx context.Context, accountID, principalID string) (domain.Account, error) {
	if accountID == "" || accountID != principalID {
		return domain.Account{}, ErrInvalidAccount
	}

	if err := s.accounts.DisableTwoFactor(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("disable two-factor: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	s.log.Info("two-factor disabled", zap.String("account_id", account.ID))

	return account.Sanitized(), nil
}

// UpdateMethod switches the preferred delivery method. The enrollment
// state is left untouched; a method change alone does not re-verify the
// account.
func (s *TwoFactorService) UpdateMethod(ctx context.Context, accountID, method string) (domain.Account, error) {
	parsed := domain.ParseAuthMethod(method)
	if parsed == domain.AuthMethodNone {
		return domain.Account{}, &ValidationError{Field: "auth_type", Message: "unsupported authentication type"}
	}

	if err := s.accounts.UpdateAuthMethod(ctx, accountID, parsed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("update auth method: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	return account.Sanitized(), nil
}

// VerifySession is the session-flow verification variant used during
// enrollment. Authenticator accounts must present a valid code; SMS
// accounts are marked configured without a code check since delivery is
// confirmed out of band.
func (s *TwoFactorService) VerifySession(ctx context.Context, accountID, code string) (domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	switch account.AuthMethod {
	case domain.AuthMethodSMS:
		if err := s.accounts.MarkConfigured(ctx, account.ID, false); err != nil {
			return domain.Account{}, fmt.Errorf("mark configured: %w", err)
		}
		account.TwoFactorConfigured = true
		account.OTPVerified = false
	case domain.AuthMethodAuthenticator:
		var secret string
		if account.OTPSecret != nil {
			secret = *account.OTPSecret
		}
		if !s.otp.Verify(secret, code) {
			return domain.Account{}, ErrInvalidOTP
		}
		if err := s.accounts.MarkConfigured(ctx, account.ID, true); err != nil {
			return domain.Account{}, fmt.Errorf("mark configured: %w", err)
		}
		account.TwoFactorConfigured = true
		account.OTPVerified = true
	default:
		return domain.Account{}, ErrInvalidOTP
	}

	return account.Sanitized(), nil
}

// Status reports the current 2FA posture of the account.
func (s *TwoFactorService) Status(ctx context.Context, accountID string) (domain.TwoFactorStatus, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TwoFactorStatus{}, ErrInvalidAccount
		}
		return domain.TwoFactorStatus{}, fmt.Errorf("lookup account: %w", err)
	}

	return domain.TwoFactorStatus{
		Enabled:    account.TwoFactorEnabled,
		Configured: account.TwoFactorConfigured,
		AuthMethod: account.AuthMethod,
	}, nil
}

// Setup finalizes enrollment by marking the account configured. It returns
// the provisioning URI so that clients can re-display the QR code.
func (s *TwoFactorService) Setup(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	if !account.TwoFactorEnabled {
		return domain.Account{}, ErrInvalidAccount
	}

	if err := s.accounts.SetConfigured(ctx, account.ID); err != nil {
		return domain.Account{}, fmt.Errorf("set configured: %w", err)
	}
	account.TwoFactorConfigured = true

	return account.Sanitized(), nil
}
