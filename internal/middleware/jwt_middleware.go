package middleware

import (
	"log/slog"
	"strings"

	"conduit/internal/auth"
	"conduit/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the Fiber locals key holding the authenticated user's id.
const UserIDKey = "user_id"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(tokens *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"errors": fiber.Map{"token": []string{"is missing"}},
			})
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			observability.Logger.Debug("JWT validation failed", slog.String("error", err.Error()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"errors": fiber.Map{"token": []string{"is invalid"}},
			})
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(UserIDKey, claims.UserID)
		c.Locals("username", claims.Username)
		return c.Next()
	}
}

// AuthOptional resolves the token when one is present. Missing or invalid tokens
// leave the request anonymous.
func AuthOptional(tokens *auth.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Next()
		}
		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return c.Next()
		}
		c.Locals(UserIDKey, claims.UserID)
		c.Locals("username", claims.Username)
		return c.Next()
	}
}

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

// Expected format: "Token <jwt>" or "Bearer <jwt>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if scheme != "Token" && scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
