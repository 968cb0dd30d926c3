// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"mockai/pkg/auth"
	"mockai/pkg/response"
)

// Context keys for storing request data
const (
	UserIDKey    = "userID"
	RequestIDKey = "requestID"
)

// tokenQueryParam carries the token on websocket upgrades, where browsers
// cannot set an Authorization header.
const tokenQueryParam = "access_token"

// Auth returns a middleware that validates JWT tokens.
func Auth(tokens auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil || claims.UserID == "" {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// bearerToken writes the 401 itself when no usable token is present.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query(tokenQueryParam); token != "" && isWebsocketUpgrade(c) {
			return token, true
		}
		response.Unauthorized(c, "missing authorization header")
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		response.Unauthorized(c, "invalid authorization header format")
		return "", false
	}
	return parts[1], true
}

func isWebsocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// GetUserID retrieves the user ID from the context.
// Returns empty string if not found.
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return ""
	}
	return userID.(string)
}
