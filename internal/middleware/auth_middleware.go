package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ihcportal/booking-backend/pkg/jwt"
)

const (
	// UserContextKey is the gin context key holding the authenticated UserContext
	UserContextKey = "user_context"

	// StaffKeyHeader carries the staff shared secret
	StaffKeyHeader = "X-Staff-Key"
)

// UserContext holds the authenticated candidate
type UserContext struct {
	UserID string
	Email  string
}

func abort(c *gin.Context, status int, errType, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errType,
		"message": message,
		"code":    code,
	})
}

// AuthMiddleware validates the bearer token and stores the UserContext
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header format must be Bearer {token}", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abort(c, http.StatusUnauthorized, "unauthorized", "Token has expired", "TOKEN_EXPIRED")
				return
			}
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid token", "INVALID_TOKEN")
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		c.Next()
	}
}

// GetUserContext retrieves the user context from gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}
	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}
	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics.
// Only use behind AuthMiddleware.
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found - AuthMiddleware not applied")
	}
	return userCtx
}

// StaffMiddleware admits requests carrying the staff shared secret
func StaffMiddleware(staffKey string) gin.HandlerFunc {
	expected := []byte(staffKey)
	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(StaffKeyHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			abort(c, http.StatusForbidden, "forbidden", "Staff access required", "STAFF_ACCESS_DENIED")
			return
		}
		c.Next()
	}
}
