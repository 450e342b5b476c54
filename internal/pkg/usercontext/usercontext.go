// Package usercontext carries the authenticated user through a request.
package usercontext

import "github.com/gofiber/fiber/v2"

const localsKey = "USER_CONTEXT"

// UserContext is the per-request view of the authenticated user.
type UserContext struct {
	UserID     uint
	ClerkID    string
	Email      string
	Plan       string
	IsLoggedIn bool
}

// SetUserContext stores the user context in the request locals.
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(localsKey, uc)
}

// GetUserContext returns the user context, or an anonymous one when the auth
// middleware did not run.
func GetUserContext(c *fiber.Ctx) UserContext {
	if uc, ok := c.Locals(localsKey).(UserContext); ok {
		return uc
	}
	return UserContext{}
}
