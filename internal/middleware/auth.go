package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/auth"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	userKey   = "user"
	userIDKey = "userID"
)

// UserResolver loads the account named by a verified token.
type UserResolver interface {
	ResolveUser(ctx context.Context, username string) (*models.User, error)
}

// AuthMiddleware is the "security guard" for protected routes: it validates
// the bearer token and loads the caller into the context.
func AuthMiddleware(tokens *auth.TokenManager, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, apperr.Unauthorized("authorization header required"))
			return
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			AbortWithError(c, apperr.Unauthorized("invalid token format (must be Bearer)"))
			return
		}

		// 2. --- Validate Token ---
		username, err := tokens.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "token has expired"
			}
			AbortWithError(c, apperr.Unauthorized(msg))
			return
		}

		// 3. --- Load the user ---
		user, err := users.ResolveUser(c.Request.Context(), username)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		// 4. --- Success ---
		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := CurrentUser(c)
		if err := service.RequireRole(user, role); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
