package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
	"github.com/TobiLight/simple-2fa/internal/core/port"
	"github.com/TobiLight/simple-2fa/internal/infra/config"
	"github.com/TobiLight/simple-2fa/internal/infra/logger"
	"github.com/TobiLight/simple-2fa/internal/infra/security"
	"github.com/TobiLight/simple-2fa/internal/repository"
)

var (
	// ErrIncorrectCredentials covers both an unknown email and a wrong
	// password. The message is identical for the two cases to avoid
	// account enumeration.
	ErrIncorrectCredentials = errors.New("incorrect email or password")
	// ErrInactiveAccount indicates the account has been deactivated.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrAccountExists indicates the email is already registered.
	ErrAccountExists = errors.New("account exists")
	// ErrInvalidOTP covers a wrong code, a missing secret, and an unknown
	// account with the same coarse message.
	ErrInvalidOTP = errors.New("invalid otp or login")
	// ErrInvalidAccount indicates the account does not exist or does not
	// belong to the authenticated principal.
	ErrInvalidAccount = errors.New("invalid user")
	// ErrPasswordPolicyViolation indicates the password does not satisfy
	// strength requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError reports malformed input. It is the caller's fault and is
// never forwarded to the store layer.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error for ValidationError.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// AuthService coordinates credential verification, token issuance, and the
// password-flow OTP verification.
type AuthService struct {
	cfg       *config.AppConfig
	accounts  port.AccountRepository
	hasher    port.PasswordHasher
	otp       port.OTPEngine
	tokens    port.TokenIssuer
	passwords *security.PasswordValidator
	log       *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	hasher port.PasswordHasher,
	otp port.OTPEngine,
	tokens port.TokenIssuer,
	passwords *security.PasswordValidator,
	log *zap.Logger,
) *AuthService {
	if passwords == nil {
		passwords = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		cfg:       cfg,
		accounts:  accounts,
		hasher:    hasher,
		otp:       otp,
		tokens:    tokens,
		passwords: passwords,
		log:       log,
	}
}

// SignUpInput carries the registration payload.
type SignUpInput struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Phone           string
	EnableTwoFactor bool
	AuthMethod      string
}

// SignInResult bundles the issued token with the account view.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Account   domain.Account
}

// SignUp validates the payload, hashes the password, and creates the
// account. When authenticator 2FA is requested the secret and provisioning
// URI are generated eagerly; SMS enrollment defers all secret material to
// the setup step.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (domain.Account, error) {
	email := strings.TrimSpace(input.Email)
	if !emailRegex.MatchString(email) {
		return domain.Account{}, &ValidationError{Field: "email", Message: "invalid email address"}
	}

	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return domain.Account{}, &ValidationError{Field: "first_name", Message: "first name must not be blank"}
	}
	lastName := strings.TrimSpace(input.LastName)
	if lastName == "" {
		return domain.Account{}, &ValidationError{Field: "last_name", Message: "last name must not be blank"}
	}

	if err := s.passwords.Validate(input.Password); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	method := domain.AuthMethodNone
	if input.EnableTwoFactor {
		method = domain.ParseAuthMethod(input.AuthMethod)
		if method == domain.AuthMethodNone {
			return domain.Account{}, &ValidationError{Field: "authentication_type", Message: "unsupported authentication type"}
		}
	}

	// Friendly pre-check; the unique index still guards the race.
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return domain.Account{}, ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     passwordHash,
		FirstName:        firstName,
		LastName:         lastName,
		IsActive:         true,
		TwoFactorEnabled: input.EnableTwoFactor,
		AuthMethod:       method,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		account.Phone = &phone
	}

	if method == domain.AuthMethodAuthenticator {
		secret, err := s.otp.GenerateSecret()
		if err != nil {
			return domain.Account{}, fmt.Errorf("generate otp secret: %w", err)
		}
		uri, err := s.otp.ProvisioningURI(secret, email)
		if err != nil {
			return domain.Account{}, fmt.Errorf("build provisioning uri: %w", err)
		}
		account.OTPSecret = &secret
		account.OTPProvisioningURI = &uri
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Account{}, ErrAccountExists
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	fields := []zap.Field{
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
		zap.String("auth_method", string(account.AuthMethod)),
	}
	if account.Phone != nil {
		fields = append(fields, zap.String("phone", logger.MaskPhone(*account.Phone)))
	}
	s.log.Info("account created", fields...)

	return account.Sanitized(), nil
}

// SignIn verifies credentials and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SignInResult{}, ErrIncorrectCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SignInResult{}, ErrIncorrectCredentials
		}
		return SignInResult{}, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		return SignInResult{}, ErrInactiveAccount
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return SignInResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return SignInResult{}, ErrIncorrectCredentials
	}

	claims := domain.SessionClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.FullName(),
	}

	token, expiresAt, err := s.tokens.Issue(claims, s.accessTokenTTL())
	if err != nil {
		return SignInResult{}, fmt.Errorf("issue token: %w", err)
	}

	return SignInResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account.Sanitized(),
	}, nil
}

// VerifyOTP is the password-flow variant. It re-verifies the password and
// then checks the submitted code against the stored secret.
func (s *AuthService) VerifyOTP(ctx context.Context, email, password, code string) (domain.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidOTP
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return domain.Account{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.Account{}, ErrIncorrectCredentials
	}

	var secret string
	if account.OTPSecret != nil {
		secret = *account.OTPSecret
	}
	if !s.otp.Verify(secret, code) {
		return domain.Account{}, ErrInvalidOTP
	}

	if err := s.accounts.SetOTPVerified(ctx, account.ID, true); err != nil {
		return domain.Account{}, fmt.Errorf("mark otp verified: %w", err)
	}
	account.OTPVerified = true

	return account.Sanitized(), nil
}

// Logout clears the transient otp_verified flag. Outstanding bearer tokens
// stay valid until their natural expiry; nothing is revoked server-side.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrInvalidAccount
	}

	if err := s.accounts.SetOTPVerified(ctx, accountID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidAccount
		}
		return fmt.Errorf("clear otp verified: %w", err)
	}

	return nil
}

// Account returns the sanitized account view for the given identifier.
func (s *AuthService) Account(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidAccount
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	return account.Sanitized(), nil
}

// ParseSessionToken validates a bearer token and returns its claims.
func (s *AuthService) ParseSessionToken(token string) (*domain.SessionClaims, error) {
	return s.tokens.Validate(token)
}

func (s *AuthService) accessTokenTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.AccessTokenTTL > 0 {
		return s.cfg.JWT.AccessTokenTTL
	}
	return 60 * time.Minute
}
