package handler

import (
	"net/http"

	"company-service/internal/service"
	"company-service/internal/sms"
	"company-service/pkg/logger"
	"company-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves the OTP login flow and the email-based credential
// recovery endpoints.
type AuthHandler struct {
	identity *service.IdentityService
	otps     *service.OTPService
	sender   sms.Sender
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(identity *service.IdentityService, otps *service.OTPService, sender sms.Sender) *AuthHandler {
	return &AuthHandler{identity: identity, otps: otps, sender: sender}
}

// SendOTP issues a one-time password for a mobile number and hands it to the
// SMS collaborator. Delivery is best effort: a failed send is logged and
// the OTP stays valid.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Mobile string `json:"mobile"`
	}
	if err := c.Bind(&req); err != nil || req.Mobile == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "mobile is required"})
	}

	code, err := h.otps.Issue(c.Request().Context(), req.Mobile)
	if err != nil {
		log.Error("Failed to issue OTP", zap.Error(err))
		return fail(c, err)
	}
	prometheus.RecordOTPOperation("issued")

	if err := h.sender.Send(c.Request().Context(), req.Mobile, code); err != nil {
		log.Warn("OTP delivery failed", zap.String("mobile", req.Mobile), zap.Error(err))
		prometheus.RecordOTPOperation("delivery_failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "OTP sent",
	})
}

// VerifyOTP completes an OTP login and returns the company profile.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLogin("otp")

	var req struct {
		Mobile string `json:"mobile"`
		OTP    string `json:"otp"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	company, err := h.identity.LoginWithOTP(c.Request().Context(), req.Mobile, req.OTP)
	if err != nil {
		log.Warn("OTP verification failed", zap.String("mobile", req.Mobile), zap.Error(err))
		prometheus.RecordAuthError("otp_rejected")
		return fail(c, err)
	}
	prometheus.RecordOTPOperation("verified")

	log.Info("Company logged in via OTP", zap.Uint("id", company.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"company": company,
	})
}

// VerifyEmail reports whether an email belongs to a registered company.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email is required"})
	}

	if err := h.identity.VerifyEmail(c.Request().Context(), req.Email); err != nil {
		log.Warn("Email verification failed", zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Email verified"})
}

// ResetPassword replaces the password for a registered email.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request"})
	}

	if err := h.identity.ResetPassword(c.Request().Context(), req.Email, req.Password); err != nil {
		log.Warn("Password reset failed", zap.Error(err))
		return fail(c, err)
	}

	log.Info("Password reset", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Password updated successfully",
	})
}
