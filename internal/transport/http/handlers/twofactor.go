package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TobiLight/simple-2fa/internal/transport/http/middleware"
	"github.com/TobiLight/simple-2fa/internal/usecase"
)

// TwoFactorHandler exposes account and 2FA lifecycle endpoints. All routes
// require an authenticated session.
type TwoFactorHandler struct {
	auth      *usecase.AuthService
	twoFactor *usecase.TwoFactorService
}

// NewTwoFactorHandler constructs TwoFactorHandler.
func NewTwoFactorHandler(auth *usecase.AuthService, twoFactor *usecase.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{auth: auth, twoFactor: twoFactor}
}

// RegisterRoutes binds account and 2FA routes behind the auth middleware.
func (h *TwoFactorHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(middleware.RequireAuth(h.auth))

	r.GET("", h.currentAccount)
	r.POST("/otp/enable", h.enable)
	r.POST("/otp/disable", h.disable)
	r.POST("/otp/verify", h.verify)
	r.PATCH("/otp/method", h.updateMethod)
	r.GET("/otp/status", h.status)
	r.POST("/otp/setup", h.setup)
}

// currentAccount godoc
// @Summary Get the authenticated account
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountView
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user [get]
func (h *TwoFactorHandler) currentAccount(c *gin.Context) {
	account, err := h.auth.Account(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAccount) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrInvalidAccount.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load account"))
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

// enable godoc
// @Summary Enable two-factor authentication
// @Description Turns 2FA on for the account and rotates the TOTP secret. The response includes a fresh provisioning URI.
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountView
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/otp/enable [post]
func (h *TwoFactorHandler) enable(c *gin.Context) {
	account, err := h.twoFactor.Enable(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		h.respondTwoFactorError(c, err, "failed to enable two-factor authentication")
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

// disable godoc
// @Summary Disable two-factor authentication
// @Description Turns 2FA off and wipes all enrollment state including the stored secret. The target must be the authenticated account.
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DisableTwoFactorRequest false "Optional target account"
// @Success 200 {object} AccountView
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/otp/disable [post]
func (h *TwoFactorHandler) disable(c *gin.Context) {
	principalID := middleware.GetAccountID(c)

	var req DisableTwoFactorRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid disable payload"))
			return
		}
	}

	targetID := req.AccountID
	if targetID == "" {
		targetID = principalID
	}

	account, err := h.twoFactor.Disable(c.Request.Context(), targetID, principalID)
	if err != nil {
		h.respondTwoFactorError(c, err, "failed to disable two-factor authentication")
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

// verify godoc
// @Summary Verify two-factor enrollment
// @Description Completes enrollment for the authenticated session. Authenticator accounts must present a valid OTP code; SMS accounts are confirmed without one.
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SessionOTPVerifyRequest true "OTP verification payload"
// @Success 200 {object} AccountView
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/otp/verify [post]
func (h *TwoFactorHandler) verify(c *gin.Context) {
	var req SessionOTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid otp payload"))
		return
	}

	account, err := h.twoFactor.VerifySession(c.Request.Context(), middleware.GetAccountID(c), req.Code)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidOTP) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrInvalidOTP.Error()))
			return
		}
		h.respondTwoFactorError(c, err, "failed to verify otp")
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

// updateMethod godoc
// @Summary Change the two-factor delivery method
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateMethodRequest true "Method update payload"
// @Success 200 {object} AccountView
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/otp/method [patch]
func (h *TwoFactorHandler) updateMethod(c *gin.Context) {
	var req UpdateMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid method payload"))
		return
	}

	account, err := h.twoFactor.UpdateMethod(c.Request.Context(), middleware.GetAccountID(c), req.AuthMethod)
	if err != nil {
		var validationErr *usecase.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Error()))
			return
		}
		h.respondTwoFactorError(c, err, "failed to update method")
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

// status godoc
// @Summary Get the two-factor enrollment status
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TwoFactorStatusResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/otp/status [get]
func (h *TwoFactorHandler) status(c *gin.Context) {
	status, err := h.twoFactor.Status(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		h.respondTwoFactorError(c, err, "failed to load status")
		return
	}

	c.JSON(http.StatusOK, TwoFactorStatusResponse{
		Enabled:    status.Enabled,
		Configured: status.Configured,
		AuthMethod: status.AuthMethod,
	})
}

// setup godoc
// @Summary Finalize two-factor enrollment
// @Description Marks the account as configured and returns the provisioning URI for QR re-display.
// @Tags TwoFactor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountView
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/otp/setup [post]
func (h *TwoFactorHandler) setup(c *gin.Context) {
	account, err := h.twoFactor.Setup(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		h.respondTwoFactorError(c, err, "failed to finalize setup")
		return
	}

	c.JSON(http.StatusOK, newAccountView(account))
}

func (h *TwoFactorHandler) respondTwoFactorError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, usecase.ErrInvalidAccount) {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.ErrInvalidAccount.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallback))
}
