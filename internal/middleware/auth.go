package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ogboNoble001/brightnal-backend/internal/catalog"
	"github.com/ogboNoble001/brightnal-backend/pkg/jwtutil"
	"github.com/ogboNoble001/brightnal-backend/pkg/logger"
	"go.uber.org/zap"
)

// NewAuthMiddleware validates the Bearer JWT and stores the caller
// identity in the request context.
func NewAuthMiddleware(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"message": "missing authorization token",
				})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"message": "invalid authorization format, expected Bearer token",
				})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"message": "invalid or expired token",
				})
			}

			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("user_role", claims.Role)

			return next(c)
		}
	}
}

// CallerFromContext retrieves the authenticated caller set by the auth
// middleware. Zero value when the request was not authenticated.
func CallerFromContext(c echo.Context) catalog.Caller {
	caller := catalog.Caller{}
	if id, ok := c.Get("user_id").(uint); ok {
		caller.UserID = id
	}
	if role, ok := c.Get("user_role").(string); ok {
		caller.Role = role
	}
	return caller
}
