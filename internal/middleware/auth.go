// Package middleware provides Fiber middleware shared by the API routes.
package middleware

import (
	"context"
	"strings"

	"crwn/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier validates an access token and returns the user it was issued to.
type TokenVerifier interface {
	VerifyUserID(ctx context.Context, token string) (uint, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired enforces a valid bearer token. On success it stores "userID" and
// "accessToken" in locals.
func AuthRequired(v TokenVerifier) fiber.Handler {
	return authenticate(v, false)
}

// WebSocketAuthRequired also accepts the token as a "token" query parameter,
// since browsers cannot set headers on upgrade requests.
func WebSocketAuthRequired(v TokenVerifier) fiber.Handler {
	return authenticate(v, true)
}

// OptionalAuth sets "userID" when a valid token is present and never rejects.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := BearerToken(c); ok {
			if userID, err := v.VerifyUserID(c.UserContext(), token); err == nil {
				setUser(c, userID, token)
			}
		}
		return c.Next()
	}
}

func authenticate(v TokenVerifier, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok && allowQuery {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			if c.Get("Authorization") == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization header required"))
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		userID, err := v.VerifyUserID(c.UserContext(), token)
		if err != nil {
			if models.HasCode(err, models.CodeUnauthorized) {
				return models.RespondWithError(c, fiber.StatusUnauthorized, err)
			}
			return models.RespondWithAppError(c, err)
		}

		setUser(c, userID, token)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint, token string) {
	c.Locals("userID", userID)
	c.Locals("accessToken", token)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
}
