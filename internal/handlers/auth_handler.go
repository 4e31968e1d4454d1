package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hooshmetr/internal/models"
	"hooshmetr/internal/services"
)

type AuthHandler struct {
	OTP    *services.OTPService
	Tokens *services.TokenService
}

func NewAuthHandler(otp *services.OTPService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{OTP: otp, Tokens: tokens}
}

// @Summary      Request a login code
// @Description  Generates a one-time code, invalidates any previous code for the mobile and sends it by SMS
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.SendCodeRequest  true  "Mobile number"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /auth/send-code [post]
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mobile := strings.TrimSpace(req.Mobile)

	expiresIn, err := h.OTP.SendCode(mobile)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidMobile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "mobile number is not valid"})
		case errors.Is(err, services.ErrSendThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many codes requested, try again later"})
		default:
			log.Printf("[auth][send-code] mobile=%s err=%v", mobile, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":     "verification code sent",
		"expires_in": expiresIn,
	})
}

// @Summary      Verify a login code
// @Description  Checks the submitted code; on success returns a bearer token, creating the account on first login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      models.VerifyCodeRequest  true  "Mobile number and code"
// @Success      200      {object}  models.AuthTokens
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /auth/verify [post]
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mobile := strings.TrimSpace(req.Mobile)

	user, err := h.OTP.VerifyCode(mobile, strings.TrimSpace(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoCodeRequested):
			c.JSON(http.StatusNotFound, gin.H{"error": "no code found for this mobile, request one first"})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "code expired, request a new one"})
		case errors.Is(err, services.ErrTooManyAttempts):
			c.JSON(http.StatusForbidden, gin.H{"error": "too many attempts, request a new code"})
		case errors.Is(err, services.ErrCodeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "submitted code is wrong"})
		default:
			log.Printf("[auth][verify] mobile=%s err=%v", mobile, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}

	token, expiresIn, err := h.Tokens.Issue(user)
	if err != nil {
		log.Printf("[auth][verify] token issue failed: user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthTokens{
		AccessToken:  token,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		RefreshToken: "",
		Role:         user.Role,
	})
}

// @Summary      Refresh the access token
// @Description  Reserved for a later version
// @Tags         Auth
// @Produce      json
// @Failure      501  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "not implemented yet"})
}

// @Summary      Log out
// @Description  Tokens are stateless; logout is discarding the token on the client
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"detail": "logged out, discard the token on the client"})
}
