package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TobiLight/simple-2fa/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountView describes the account representation returned by the API.
// Secret material never leaves the service; only the provisioning URI is
// exposed so that clients can render an enrollment QR code.
type AccountView struct {
	ID                  string            `json:"id"`
	Email               string            `json:"email"`
	FirstName           string            `json:"first_name"`
	LastName            string            `json:"last_name"`
	Phone               *string           `json:"phone,omitempty"`
	IsActive            bool              `json:"is_active"`
	TwoFactorEnabled    bool              `json:"two_factor_enabled"`
	TwoFactorConfigured bool              `json:"two_factor_configured"`
	OTPVerified         bool              `json:"otp_verified"`
	AuthMethod          domain.AuthMethod `json:"authentication_type,omitempty"`
	OTPProvisioningURI  *string           `json:"otp_provisioning_uri,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func newAccountView(account domain.Account) AccountView {
	return AccountView{
		ID:                  account.ID,
		Email:               account.Email,
		FirstName:           account.FirstName,
		LastName:            account.LastName,
		Phone:               account.Phone,
		IsActive:            account.IsActive,
		TwoFactorEnabled:    account.TwoFactorEnabled,
		TwoFactorConfigured: account.TwoFactorConfigured,
		OTPVerified:         account.OTPVerified,
		AuthMethod:          account.AuthMethod,
		OTPProvisioningURI:  account.OTPProvisioningURI,
		CreatedAt:           account.CreatedAt,
		UpdatedAt:           account.UpdatedAt,
	}
}

// SignUpRequest defines the payload for the registration endpoint.
type SignUpRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	EnableTwoFactor bool   `json:"two_factor_enabled"`
	AuthMethod      string `json:"authentication_type"`
}

// SignInRequest defines the payload for the login endpoint.
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignInResponse carries the issued bearer token and the account view.
type SignInResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Account     AccountView `json:"user"`
}

// OTPVerifyRequest defines the payload for the password-flow OTP check.
type OTPVerifyRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"otp" binding:"required"`
}

// SessionOTPVerifyRequest defines the payload for the session-flow OTP check.
type SessionOTPVerifyRequest struct {
	Code string `json:"otp"`
}

// DisableTwoFactorRequest optionally names the target account. When omitted
// the authenticated account is used; a mismatching id is rejected.
type DisableTwoFactorRequest struct {
	AccountID string `json:"user_id"`
}

// UpdateMethodRequest defines the payload for switching the 2FA method.
type UpdateMethodRequest struct {
	AuthMethod string `json:"auth_type" binding:"required"`
}

// TwoFactorStatusResponse reports the current 2FA posture.
type TwoFactorStatusResponse struct {
	Enabled    bool              `json:"two_factor_enabled"`
	Configured bool              `json:"two_factor_configured"`
	AuthMethod domain.AuthMethod `json:"authentication_type,omitempty"`
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
