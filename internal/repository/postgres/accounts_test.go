package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
	"github.com/TobiLight/simple-2fa/internal/repository"
)

func newAccountMock(t *testing.T) (pgxmock.PgxPoolIface, *AccountRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAccountRepository(mock)
}

func accountRows(account domain.Account) *pgxmock.Rows {
	var phone, method, secret, uri any
	if account.Phone != nil {
		phone = *account.Phone
	}
	if account.AuthMethod != domain.AuthMethodNone {
		method = string(account.AuthMethod)
	}
	if account.OTPSecret != nil {
		secret = *account.OTPSecret
	}
	if account.OTPProvisioningURI != nil {
		uri = *account.OTPProvisioningURI
	}

	return pgxmock.NewRows(accountColumns).AddRow(
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		phone,
		account.IsActive,
		account.TwoFactorEnabled,
		account.TwoFactorConfigured,
		account.OTPVerified,
		method,
		secret,
		uri,
		account.CreatedAt,
		account.UpdatedAt,
	)
}

func TestAccountRepository_Create(t *testing.T) {
	mock, repo := newAccountMock(t)

	now := time.Now().UTC()
	phone := "+15551230000"
	secret := "JBSWY3DPEHPK3PXP"
	uri := "otpauth://totp/2fa.com:jane@example.com?secret=JBSWY3DPEHPK3PXP"
	account := domain.Account{
		ID:                 "account-1",
		Email:              "jane@example.com",
		PasswordHash:       "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		FirstName:          "Jane",
		LastName:           "Doe",
		Phone:              &phone,
		IsActive:           true,
		TwoFactorEnabled:   true,
		AuthMethod:         domain.AuthMethodAuthenticator,
		OTPSecret:          &secret,
		OTPProvisioningURI: &uri,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(
			account.ID,
			account.Email,
			account.PasswordHash,
			account.FirstName,
			account.LastName,
			phone,
			account.IsActive,
			account.TwoFactorEnabled,
			account.TwoFactorConfigured,
			account.OTPVerified,
			string(account.AuthMethod),
			secret,
			uri,
			account.CreatedAt,
			account.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateNullableColumns(t *testing.T) {
	mock, repo := newAccountMock(t)

	now := time.Now().UTC()
	account := domain.Account{
		ID:           "account-1",
		Email:        "jane@example.com",
		PasswordHash: "hash",
		FirstName:    "Jane",
		LastName:     "Doe",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(
			account.ID,
			account.Email,
			account.PasswordHash,
			account.FirstName,
			account.LastName,
			nil,
			account.IsActive,
			false,
			false,
			false,
			nil,
			nil,
			nil,
			account.CreatedAt,
			account.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateDuplicate(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := repo.Create(context.Background(), domain.Account{ID: "account-1", Email: "jane@example.com"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	mock, repo := newAccountMock(t)

	now := time.Now().UTC()
	stored := domain.Account{
		ID:           "account-1",
		Email:        "jane@example.com",
		PasswordHash: "hash",
		FirstName:    "Jane",
		LastName:     "Doe",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("Jane@Example.com").
		WillReturnRows(accountRows(stored))

	account, err := repo.GetByEmail(context.Background(), "Jane@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if account.ID != stored.ID || account.Email != stored.Email {
		t.Errorf("unexpected account %+v", account)
	}
	if account.Phone != nil || account.OTPSecret != nil {
		t.Error("nullable columns should stay nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByEmailNotFound(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	mock, repo := newAccountMock(t)

	now := time.Now().UTC()
	secret := "JBSWY3DPEHPK3PXP"
	stored := domain.Account{
		ID:               "account-1",
		Email:            "jane@example.com",
		PasswordHash:     "hash",
		IsActive:         true,
		TwoFactorEnabled: true,
		AuthMethod:       domain.AuthMethodAuthenticator,
		OTPSecret:        &secret,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("account-1").
		WillReturnRows(accountRows(stored))

	account, err := repo.GetByID(context.Background(), "account-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if account.AuthMethod != domain.AuthMethodAuthenticator {
		t.Errorf("unexpected auth method %q", account.AuthMethod)
	}
	if account.OTPSecret == nil || *account.OTPSecret != secret {
		t.Errorf("secret not scanned: %v", account.OTPSecret)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_EnableTwoFactor(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(true, string(domain.AuthMethodAuthenticator), "secret", "otpauth://totp/x", "account-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.EnableTwoFactor(context.Background(), "account-1", "secret", "otpauth://totp/x"); err != nil {
		t.Fatalf("EnableTwoFactor returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_DisableTwoFactor(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(false, false, nil, nil, nil, "account-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.DisableTwoFactor(context.Background(), "account-1"); err != nil {
		t.Fatalf("DisableTwoFactor returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpdateAuthMethod(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(string(domain.AuthMethodSMS), "account-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateAuthMethod(context.Background(), "account-1", domain.AuthMethodSMS); err != nil {
		t.Fatalf("UpdateAuthMethod returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_MarkConfigured(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(true, true, "account-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.MarkConfigured(context.Background(), "account-1", true); err != nil {
		t.Fatalf("MarkConfigured returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_SetOTPVerifiedNotFound(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(false, "missing-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetOTPVerified(context.Background(), "missing-id", false); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
