package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
	"github.com/TobiLight/simple-2fa/internal/core/port"
	"github.com/TobiLight/simple-2fa/internal/repository"
)

const uniqueViolationCode = "23505"

var accountColumns = []string{
	"id",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"phone",
	"is_active",
	"two_factor_enabled",
	"two_factor_configured",
	"otp_verified",
	"auth_method",
	"otp_secret",
	"otp_provisioning_uri",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account row. A violated email uniqueness constraint
// is reported as repository.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	var phoneValue any
	if account.Phone != nil && *account.Phone != "" {
		phoneValue = *account.Phone
	}

	var methodValue any
	if account.AuthMethod != domain.AuthMethodNone {
		methodValue = string(account.AuthMethod)
	}

	var secretValue any
	if account.OTPSecret != nil && *account.OTPSecret != "" {
		secretValue = *account.OTPSecret
	}

	var uriValue any
	if account.OTPProvisioningURI != nil && *account.OTPProvisioningURI != "" {
		uriValue = *account.OTPProvisioningURI
	}

	query := r.builder.Insert("users").
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Email,
			account.PasswordHash,
			account.FirstName,
			account.LastName,
			phoneValue,
			account.IsActive,
			account.TwoFactorEnabled,
			account.TwoFactorConfigured,
			account.OTPVerified,
			methodValue,
			secretValue,
			uriValue,
			account.CreatedAt,
			account.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByEmail retrieves an account by email, compared case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("users").
		Where(squirrel.Expr("lower(email) = lower(?)", email)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// EnableTwoFactor stores fresh secret material and switches the account to
// the authenticator method.
func (r *AccountRepository) EnableTwoFactor(ctx context.Context, id, secret, provisioningURI string) error {
	stmt, args, err := r.builder.Update("users").
		Set("two_factor_enabled", true).
		Set("auth_method", string(domain.AuthMethodAuthenticator)).
		Set("otp_secret", secret).
		Set("otp_provisioning_uri", provisioningURI).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build enable two factor sql: %w", err)
	}

	return r.execUpdate(ctx, stmt, args, "enable two factor")
}

// DisableTwoFactor wipes all 2FA state in a single statement.
func (r *AccountRepository) DisableTwoFactor(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("users").
		Set("two_factor_enabled", false).
		Set("two_factor_configured", false).
		Set("auth_method", nil).
		Set("otp_secret", nil).
		Set("otp_provisioning_uri", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build disable two factor sql: %w", err)
	}

	return r.execUpdate(ctx, stmt, args, "disable two factor")
}

// UpdateAuthMethod switches the delivery method without touching the
// enabled flag or secret material.
func (r *AccountRepository) UpdateAuthMethod(ctx context.Context, id string, method domain.AuthMethod) error {
	var methodValue any
	if method != domain.AuthMethodNone {
		methodValue = string(method)
	}

	stmt, args, err := r.builder.Update("users").
		Set("auth_method", methodValue).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update auth method sql: %w", err)
	}

	return r.execUpdate(ctx, stmt, args, "update auth method")
}

// MarkConfigured records a completed enrollment verification.
func (r *AccountRepository) MarkConfigured(ctx context.Context, id string, otpVerified bool) error {
	stmt, args, err := r.builder.Update("users").
		Set("two_factor_configured", true).
		Set("otp_verified", otpVerified).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark configured sql: %w", err)
	}

	return r.execUpdate(ctx, stmt, args, "mark configured")
}

// SetConfigured flags enrollment complete without altering otp_verified.
func (r *AccountRepository) SetConfigured(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("users").
		Set("two_factor_configured", true).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set configured sql: %w", err)
	}

	return r.execUpdate(ctx, stmt, args, "set configured")
}

// SetOTPVerified sets the per-session otp_verified flag.
func (r *AccountRepository) SetOTPVerified(ctx context.Context, id string, verified bool) error {
	stmt, args, err := r.builder.Update("users").
		Set("otp_verified", verified).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set otp verified sql: %w", err)
	}

	return r.execUpdate(ctx, stmt, args, "set otp verified")
}

func (r *AccountRepository) execUpdate(ctx context.Context, stmt string, args []any, op string) error {
	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		phone   sql.NullString
		method  sql.NullString
		secret  sql.NullString
		uri     sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&phone,
		&account.IsActive,
		&account.TwoFactorEnabled,
		&account.TwoFactorConfigured,
		&account.OTPVerified,
		&method,
		&secret,
		&uri,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if phone.Valid {
		val := phone.String
		account.Phone = &val
	}
	if method.Valid {
		account.AuthMethod = domain.AuthMethod(method.String)
	}
	if secret.Valid {
		val := secret.String
		account.OTPSecret = &val
	}
	if uri.Valid {
		val := uri.String
		account.OTPProvisioningURI = &val
	}

	return &account, nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
