package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/cache"
	"github.com/omniagency/omniagency/internal/pkg/usercontext"
)

// AccountController serves the authenticated user's own profile and billing
// snapshot.
type AccountController struct {
	users repository.UserRepository
}

func NewAccountController(users repository.UserRepository) *AccountController {
	return &AccountController{users: users}
}

// Me returns the current user's profile. The plan tier goes through the
// cache read-through so dashboard polling does not hit the database row on
// every request; webhook projections invalidate the key.
func (ct *AccountController) Me(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := ct.users.GetByID(uc.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("[AccountController] loading user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}

	plan := cache.GetUserPlan(user.ID)
	if plan == "" {
		plan = user.PlanID
		cache.SetUserPlan(user.ID, plan)
	}

	return c.JSON(fiber.Map{
		"id":                 user.ID,
		"clerk_id":           user.ClerkID,
		"email":              user.Email,
		"name":               user.Name,
		"avatar_url":         user.AvatarURL,
		"plan_id":            plan,
		"has_customer":       user.StripeCustomerID != nil,
		"subscription_id":    user.SubscriptionID,
		"current_period_end": formatTimePtr(user.CurrentPeriodEnd),
		"created_at":         user.CreatedAt,
	})
}
