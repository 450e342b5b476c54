package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/usercontext"
)

// SettingsController exposes the small per-user preference blob used by the
// dashboard.
type SettingsController struct {
	users repository.UserRepository
}

func NewSettingsController(users repository.UserRepository) *SettingsController {
	return &SettingsController{users: users}
}

type settingsForm struct {
	DefaultAgentName string `json:"default_agent_name" validate:"max=50"`
	WelcomeMessage   string `json:"welcome_message" validate:"max=200"`
}

// Get returns the current user's settings.
func (ct *SettingsController) Get(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	user, err := ct.users.GetByID(uc.UserID)
	if err != nil {
		log.Printf("[SettingsController] loading user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{
		"default_agent_name": user.DefaultAgentName,
		"welcome_message":    user.WelcomeMessage,
	})
}

// Update overwrites both settings fields from the form.
func (ct *SettingsController) Update(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)

	var form settingsForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&form); err != nil {
		return validationFailed(c, err)
	}

	fields := map[string]interface{}{
		"default_agent_name": form.DefaultAgentName,
		"welcome_message":    form.WelcomeMessage,
	}
	if err := ct.users.UpdateFields(uc.UserID, fields); err != nil {
		log.Printf("[SettingsController] updating settings of user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}
	return c.JSON(fiber.Map{
		"default_agent_name": form.DefaultAgentName,
		"welcome_message":    form.WelcomeMessage,
	})
}
