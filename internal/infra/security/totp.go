package security

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/TobiLight/simple-2fa/internal/core/port"
)

const (
	defaultTOTPPeriod       = 30
	defaultTOTPSkew         = 1
	defaultTOTPSecretLength = 20
)

// TOTPEngine implements port.OTPEngine backed by RFC 6238 TOTP codes.
type TOTPEngine struct {
	issuer       string
	period       uint
	skew         uint
	secretLength uint
}

// TOTPOptions tunes secret generation and the verification window.
type TOTPOptions struct {
	Issuer       string
	Period       uint
	Skew         uint
	SecretLength uint
}

// NewTOTPEngine builds an engine for the given issuer. Zero options fall
// back to a 30 second period, one adjacent step of tolerance, and 20 byte
// secrets.
func NewTOTPEngine(opts TOTPOptions) (*TOTPEngine, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("totp: issuer is required")
	}

	engine := &TOTPEngine{
		issuer:       opts.Issuer,
		period:       opts.Period,
		skew:         opts.Skew,
		secretLength: opts.SecretLength,
	}
	if engine.period == 0 {
		engine.period = defaultTOTPPeriod
	}
	if engine.skew == 0 {
		engine.skew = defaultTOTPSkew
	}
	if engine.secretLength == 0 {
		engine.secretLength = defaultTOTPSecretLength
	}

	return engine, nil
}

// GenerateSecret returns a fresh cryptographically random secret encoded as
// unpadded base32.
func (e *TOTPEngine) GenerateSecret() (string, error) {
	buf := make([]byte, e.secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totp: generate secret: %w", err)
	}

	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// ProvisioningURI renders the otpauth:// enrollment URI for an existing
// secret, labelled with the account identifier.
func (e *TOTPEngine) ProvisioningURI(secret, accountLabel string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("totp: secret is required")
	}
	if accountLabel == "" {
		return "", fmt.Errorf("totp: account label is required")
	}

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("totp: decode secret: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: accountLabel,
		Period:      e.period,
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("totp: build provisioning uri: %w", err)
	}

	return key.URL(), nil
}

// Verify reports whether code matches the secret within the current or an
// adjacent time step. Empty secrets and malformed codes never verify; the
// underlying comparison is constant-time.
func (e *TOTPEngine) Verify(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    e.period,
		Skew:      e.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}

	return ok
}

var _ port.OTPEngine = (*TOTPEngine)(nil)
