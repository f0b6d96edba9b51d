package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ogboNoble001/brightnal-backend/internal/auth"
	"github.com/ogboNoble001/brightnal-backend/internal/catalog"
	"github.com/ogboNoble001/brightnal-backend/internal/model"
	"github.com/ogboNoble001/brightnal-backend/pkg/jwtutil"
	"github.com/ogboNoble001/brightnal-backend/pkg/logger"
	"github.com/ogboNoble001/brightnal-backend/prometheus"
	"go.uber.org/zap"
)

// UserStore is what the auth handler needs from the user repository.
type UserStore interface {
	UpsertFederated(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// AuthHandler exchanges a verified Google ID token for a session JWT.
type AuthHandler struct {
	users    UserStore
	verifier auth.TokenVerifier
	jwt      *jwtutil.JWTUtil
	status   catalog.DependencyStatus
}

// NewAuthHandler creates the handler.
func NewAuthHandler(users UserStore, verifier auth.TokenVerifier, jwt *jwtutil.JWTUtil, status catalog.DependencyStatus) *AuthHandler {
	return &AuthHandler{users: users, verifier: verifier, jwt: jwt, status: status}
}

// GoogleLogin verifies the posted Google ID token, upserts the user and
// issues a session token.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt()

	if !h.status.Database {
		log.Warn("Login attempted while database is unavailable")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"success": false,
			"message": "service temporarily unavailable",
		})
	}

	var req struct {
		Credential string `json:"credential"`
	}
	if err := c.Bind(&req); err != nil || req.Credential == "" {
		log.Warn("Login request without credential")
		prometheus.RecordAuthError()
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "credential is required",
		})
	}

	profile, err := h.verifier.Verify(c.Request().Context(), req.Credential)
	if err != nil {
		log.Error("Google token verification failed", zap.Error(err))
		prometheus.RecordAuthError()
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false,
			"message": "invalid credential",
		})
	}

	user, err := h.users.UpsertFederated(c.Request().Context(), &model.User{
		GoogleID: profile.Subject,
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
		Provider: "google",
	})
	if err != nil {
		log.Error("Failed to upsert user",
			zap.String("email", profile.Email),
			zap.Error(err))
		prometheus.RecordAuthError()
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "something went wrong",
		})
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError()
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "token error",
		})
	}

	prometheus.RecordAuthSuccess()
	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Me returns the authenticated caller's user record.
func (h *AuthHandler) Me(c echo.Context) error {
	log := logger.FromContext(c)

	if !h.status.Database {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"success": false,
			"message": "service temporarily unavailable",
		})
	}

	userID, ok := c.Get("user_id").(uint)
	if !ok || userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false,
			"message": "missing authorization token",
		})
	}

	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to load user", zap.Uint("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": "user not found",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
	})
}
