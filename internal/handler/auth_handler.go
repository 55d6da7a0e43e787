package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/httpx"
	"complaint-service/internal/middleware"
	"complaint-service/internal/model"
)

type AuthHandler struct {
	auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "registration successful, check your email for the verification code", user)
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "email verified", user)
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req model.EmailRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.auth.ResendOTP(c.Request.Context(), &req); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "a new code has been sent", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "login successful", resp)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.EmailRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), &req); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "if the address is registered, a reset code has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), &req); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "password has been reset", nil)
}

// Handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", user)
}
