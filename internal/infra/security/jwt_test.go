package security

import (
	"errors"
	"testing"
	"time"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
)

func newTestIssuer(t *testing.T) *SessionTokenIssuer {
	t.Helper()

	issuer, err := NewSessionTokenIssuer("unit-test-secret", "simple-2fa")
	if err != nil {
		t.Fatalf("failed to create issuer: %v", err)
	}
	return issuer
}

func TestNewSessionTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewSessionTokenIssuer("", "simple-2fa"); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewSessionTokenIssuer("   ", "simple-2fa"); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := domain.SessionClaims{
		AccountID: "account-1",
		Email:     "jane@example.com",
		Name:      "Jane Doe",
	}

	token, expiresAt, err := issuer.Issue(claims, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	remaining := time.Until(expiresAt)
	if remaining < 59*time.Minute || remaining > time.Hour {
		t.Errorf("unexpected expiry, %v remaining", remaining)
	}

	parsed, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if parsed.AccountID != claims.AccountID {
		t.Errorf("account id mismatch: %q", parsed.AccountID)
	}
	if parsed.Email != claims.Email {
		t.Errorf("email mismatch: %q", parsed.Email)
	}
	if parsed.Name != claims.Name {
		t.Errorf("name mismatch: %q", parsed.Name)
	}
	if !parsed.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("expiry mismatch: %v vs %v", parsed.ExpiresAt, expiresAt)
	}
}

func TestIssueRequiresAccountID(t *testing.T) {
	issuer := newTestIssuer(t)

	if _, _, err := issuer.Issue(domain.SessionClaims{}, time.Hour); err == nil {
		t.Fatal("expected error for missing account id")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, _, err := issuer.Issue(domain.SessionClaims{AccountID: "account-1"}, time.Millisecond)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := issuer.Validate(token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateRejectsForeignAndGarbageTokens(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := NewSessionTokenIssuer("another-secret", "simple-2fa")
	if err != nil {
		t.Fatalf("failed to create issuer: %v", err)
	}
	foreign, _, err := other.Issue(domain.SessionClaims{AccountID: "account-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	wrongIssuer, err := NewSessionTokenIssuer("unit-test-secret", "someone-else")
	if err != nil {
		t.Fatalf("failed to create issuer: %v", err)
	}
	misissued, _, err := wrongIssuer.Issue(domain.SessionClaims{AccountID: "account-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": foreign,
		"wrong issuer": misissued,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := issuer.Validate(token); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
