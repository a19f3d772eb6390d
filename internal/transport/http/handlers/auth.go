package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TobiLight/simple-2fa/internal/transport/http/middleware"
	"github.com/TobiLight/simple-2fa/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/otp/verify", h.verifyOTP)
	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
}

// register godoc
// @Summary Register a new account
// @Description Creates a new account with the supplied credentials, optionally enrolling it in two-factor authentication.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Registration request payload"
// @Success 201 {object} AccountView
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	account, err := h.auth.SignUp(c.Request.Context(), usecase.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		EnableTwoFactor: req.EnableTwoFactor,
		AuthMethod:      req.AuthMethod,
	})
	if err != nil {
		var validationErr *usecase.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Error()))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		case errors.Is(err, usecase.ErrAccountExists):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "account exists"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register account"))
		}
		return
	}

	c.JSON(http.StatusCreated, newAccountView(account))
}

// login godoc
// @Summary Authenticate with email and password
// @Description Verifies credentials and issues a bearer token. Accounts with two-factor enabled must additionally verify an OTP code.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Login request payload"
// @Success 200 {object} SignInResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrIncorrectCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrIncorrectCredentials.Error()))
		case errors.Is(err, usecase.ErrInactiveAccount):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrInactiveAccount.Error()))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to sign in"))
		}
		return
	}

	c.JSON(http.StatusOK, SignInResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		Account:     newAccountView(result.Account),
	})
}

// verifyOTP godoc
// @Summary Verify an OTP code with credentials
// @Description Re-verifies the password and checks the submitted OTP code against the stored secret.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body OTPVerifyRequest true "OTP verification payload"
// @Success 200 {object} AccountView
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/otp/verify [post]
func (h *AuthHandler) verifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid otp payload"))
		return
	}

	account, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrIncorrectCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrIncorrectCredentials.Error()))
		case errors.Is(err, usecase.ErrInvalidOTP):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrInvalidOTP.Error()))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to verify otp"))
		}
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

// logout godoc
// @Summary Log out the authenticated account
// @Description Clears the per-session OTP verification flag. Bearer tokens remain valid until expiry.
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	if accountID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), accountID); err != nil {
		if errors.Is(err, usecase.ErrInvalidAccount) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrInvalidAccount.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to log out"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
