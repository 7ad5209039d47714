package auth

import (
	"errors"
	"net/http"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/user"
	"github.com/KobiNisim21/destiny-commerce/internal/middleware"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/response"
	authUsecase "github.com/KobiNisim21/destiny-commerce/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Registration ==========

// Register handles customer registration (public endpoint)
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	u, err := h.authService.Register(c.Request.Context(), &req)
	if errors.Is(err, xerrors.ErrConflict) {
		response.Error(c, http.StatusConflict, "email already registered", nil)
		return
	}
	if err != nil {
		h.logger.Error("registration failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		response.Error(c, http.StatusBadRequest, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", u)
}

// ========== Login ==========

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	loginResp, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.GetHeader("User-Agent"))
	if errors.Is(err, xerrors.ErrRateLimited) {
		response.Error(c, http.StatusTooManyRequests, "too many login attempts, try again later", nil)
		return
	}
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		response.Error(c, http.StatusUnauthorized, "invalid email or password", nil)
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Logout ==========

// Logout revokes the current session (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	jti := middleware.MustGetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), userID, jti); err != nil {
		h.logger.Error("logout failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// ========== Profile ==========

// GetMe returns the current user's account (requires auth)
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	u, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", u)
}

// UpdateProfile updates name and phone (requires auth)
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	u, err := h.authService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "profile update failed", err)
		return
	}

	response.Success(c, http.StatusOK, "profile updated", u)
}

// ChangePassword verifies the current password and sets a new one
// (requires auth)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req user.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), userID, &req)
	if errors.Is(err, xerrors.ErrUnauthorized) {
		response.Error(c, http.StatusUnauthorized, "current password is incorrect", nil)
		return
	}
	if err != nil {
		response.Error(c, http.StatusBadRequest, "password change failed", err)
		return
	}

	response.Success(c, http.StatusOK, "password changed successfully", nil)
}
