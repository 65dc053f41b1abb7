package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krishnaqnq/todo/internal/apperr"
	"github.com/krishnaqnq/todo/internal/auth"
	"github.com/krishnaqnq/todo/internal/middleware"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// resetRequestedMessage is returned for every forgot-password request that
// did not hit a delivery failure, whether or not the account exists. Keeping
// the responses byte-identical is a security property (no user enumeration),
// not an oversight.
const resetRequestedMessage = "If an account with that email exists, we have sent a password reset link."

// AuthController serves the credential-lifecycle endpoints.
type AuthController struct {
	svc   *auth.Service
	reset *auth.ResetManager
}

func NewAuthController(svc *auth.Service, reset *auth.ResetManager) *AuthController {
	return &AuthController{svc: svc, reset: reset}
}

// fail maps a taxonomy error to its contractual status with a safe message.
// Internal causes are logged here and never serialized.
func fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal || apperr.KindOf(err) == apperr.KindDelivery {
		logger.Error(c.Request.Context(), "Request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// Register creates an account and returns its public fields.
func (ac *AuthController) Register(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	user, err := ac.svc.Register(c.Request.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Login exchanges credentials for a session token.
func (ac *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	token, user, err := ac.svc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// ChangePassword verifies the current password before setting a new one.
// Requires an authenticated session.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID := middleware.Identity(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	if body.CurrentPassword == "" || body.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password and new password are required"})
		return
	}
	if err := ac.svc.ChangePassword(c.Request.Context(), userID, body.CurrentPassword, body.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// ForgotPassword issues a reset token and mails the link. The response does
// not reveal whether the account exists.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	if err := ac.reset.Request(c.Request.Context(), body.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
}

// ResetPassword redeems a reset token for a new password.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to decode request"})
		return
	}
	if err := ac.reset.Redeem(c.Request.Context(), body.Token, body.Password); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}
