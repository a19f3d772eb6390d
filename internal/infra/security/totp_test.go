package security

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func newTestTOTPEngine(t *testing.T) *TOTPEngine {
	t.Helper()

	engine, err := NewTOTPEngine(TOTPOptions{Issuer: "2fa.com"})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func TestNewTOTPEngineRequiresIssuer(t *testing.T) {
	if _, err := NewTOTPEngine(TOTPOptions{}); err == nil {
		t.Fatal("expected error for missing issuer")
	}
}

func TestGenerateSecretIsRandom(t *testing.T) {
	engine := newTestTOTPEngine(t)

	first, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}
	second, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}

	if first == "" || first == second {
		t.Errorf("secrets should be non-empty and unique, got %q and %q", first, second)
	}
	if strings.Contains(first, "=") {
		t.Errorf("secret must be unpadded base32, got %q", first)
	}
}

func TestProvisioningURI(t *testing.T) {
	engine := newTestTOTPEngine(t)

	secret, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}

	uri, err := engine.ProvisioningURI(secret, "jane@example.com")
	if err != nil {
		t.Fatalf("ProvisioningURI returned error: %v", err)
	}
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Errorf("unexpected scheme in %q", uri)
	}
	if !strings.Contains(uri, "issuer=2fa.com") {
		t.Errorf("issuer missing from %q", uri)
	}
	if !strings.Contains(uri, "jane@example.com") {
		t.Errorf("account label missing from %q", uri)
	}

	if _, err := engine.ProvisioningURI("", "jane@example.com"); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := engine.ProvisioningURI(secret, ""); err == nil {
		t.Error("expected error for empty account label")
	}
}

func TestVerifyAcceptsCurrentCode(t *testing.T) {
	engine := newTestTOTPEngine(t)

	secret, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}

	if !engine.Verify(secret, code) {
		t.Error("expected current code to verify")
	}
}

func TestVerifyAcceptsAdjacentWindow(t *testing.T) {
	engine := newTestTOTPEngine(t)

	secret, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}

	previous, err := totp.GenerateCode(secret, time.Now().Add(-30*time.Second))
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}

	if !engine.Verify(secret, previous) {
		t.Error("expected previous-step code to verify within skew")
	}
}

func TestVerifyRejectsBadInput(t *testing.T) {
	engine := newTestTOTPEngine(t)

	secret, err := engine.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}

	stale, err := totp.GenerateCode(secret, time.Now().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}

	cases := []struct {
		name   string
		secret string
		code   string
	}{
		{"empty secret", "", "123456"},
		{"empty code", secret, ""},
		{"malformed code", secret, "not-a-code"},
		{"stale code", secret, stale},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if engine.Verify(tc.secret, tc.code) {
				t.Error("expected verification failure")
			}
		})
	}
}
