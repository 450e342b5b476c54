package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/auth"
	"github.com/omniagency/omniagency/internal/pkg/usercontext"
)

// RequireUser enforces bearer-token auth and resolves the token subject to a
// local user. A nil verifier means auth is not configured; the endpoint fails
// closed at request time.
func RequireUser(verifier auth.TokenVerifier, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			log.Print("auth middleware: token verifier not configured")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "auth_unavailable", "message": "Authentication is not configured"})
		}

		token, ok := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or malformed Authorization header"})
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Printf("auth middleware: token rejected: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid token"})
		}

		user, err := users.GetByClerkID(claims.Subject)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Valid token but identity webhook has not provisioned the row
				// yet.
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "User not provisioned"})
			}
			log.Printf("auth middleware: user lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "User lookup failed"})
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     user.ID,
			ClerkID:    user.ClerkID,
			Email:      user.Email,
			Plan:       user.PlanID,
			IsLoggedIn: true,
		})
		return c.Next()
	}
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
