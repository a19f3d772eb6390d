package domain

import (
	"strings"
	"time"
)

// AuthMethod enumerates supported second-factor delivery methods.
type AuthMethod string

const (
	AuthMethodNone          AuthMethod = ""
	AuthMethodAuthenticator AuthMethod = "google-authenticator"
	AuthMethodSMS           AuthMethod = "sms"
)

// ParseAuthMethod normalizes a client supplied method string.
// Unknown values map to AuthMethodNone so callers can reject them explicitly.
func ParseAuthMethod(value string) AuthMethod {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(AuthMethodAuthenticator):
		return AuthMethodAuthenticator
	case string(AuthMethodSMS):
		return AuthMethodSMS
	default:
		return AuthMethodNone
	}
}

// Account mirrors the persisted representation in the users table.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	IsActive     bool

	TwoFactorEnabled    bool
	TwoFactorConfigured bool
	OTPVerified         bool
	AuthMethod          AuthMethod
	OTPSecret           *string
	OTPProvisioningURI  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the first and last name for token claims and display.
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Sanitized returns a copy with credential material stripped.
// Account views handed to transports must never carry the password hash.
func (a Account) Sanitized() Account {
	a.PasswordHash = ""
	return a
}

// SessionClaims is the claim set embedded in a session token.
type SessionClaims struct {
	AccountID string
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TwoFactorStatus summarizes the 2FA sub-state of an account.
type TwoFactorStatus struct {
	Enabled    bool
	Configured bool
	AuthMethod AuthMethod
}
